package utils

import (
	"log"

	courseModels "lms/models/course"
	"lms/services"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// StartCertificateScheduler runs the daily certificate expiry sweep at 02:00
// and once immediately at startup to catch up after downtime.
func StartCertificateScheduler(certificates *services.CertificateService) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("0 2 * * *", func() {
		runCertificateSweep(certificates)
	})
	if err != nil {
		log.Printf("[SCHEDULER] Failed to register certificate sweep: %v", err)
		return c
	}

	c.Start()
	log.Println("[SCHEDULER] Certificate expiry sweep scheduled daily at 02:00")

	go runCertificateSweep(certificates)
	return c
}

func runCertificateSweep(certificates *services.CertificateService) {
	expired, err := certificates.ExpireOverdue()
	if err != nil {
		log.Printf("[SCHEDULER] Certificate expiry sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[SCHEDULER] Marked %d certificate(s) as expired", expired)
	}

	// Heads-up for certificates running out before the day ends.
	var dueToday int64
	err = certificates.DB.Model(&courseModels.Certificate{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at BETWEEN ? AND ?",
			courseModels.CertificateActive, now.BeginningOfDay(), now.EndOfDay()).
		Count(&dueToday).Error
	if err != nil {
		log.Printf("[SCHEDULER] Failed to count expiring certificates: %v", err)
		return
	}
	if dueToday > 0 {
		log.Printf("[SCHEDULER] %d certificate(s) expire before end of day", dueToday)
	}
}
