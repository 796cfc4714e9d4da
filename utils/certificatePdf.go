package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"lms/config"
	courseModels "lms/models/course"
)

// CertificateFileRenderer writes certificate artifacts as self-contained HTML
// documents under the configured storage directory. It implements
// services.CertificateRenderer.
type CertificateFileRenderer struct {
	Dir      string
	template *template.Template
}

const certificateTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Certificate {{.CertificateNumber}}</title>
<style>
  body { font-family: Georgia, serif; text-align: center; padding: 60px; }
  .frame { border: 6px double #2c3e50; padding: 48px; }
  h1 { letter-spacing: 4px; color: #2c3e50; }
  .student { font-size: 32px; margin: 24px 0; }
  .formation { font-size: 22px; font-style: italic; }
  .meta { margin-top: 40px; font-size: 14px; color: #555; }
</style>
</head>
<body>
<div class="frame">
  <h1>CERTIFICATE OF COMPLETION</h1>
  <p>This certifies that</p>
  <p class="student">{{.StudentName}}</p>
  <p>has successfully completed</p>
  <p class="formation">{{.FormationTitle}}</p>
  {{if .InstructorName}}<p>Instructor: {{.InstructorName}}</p>{{end}}
  {{if .CompletionDate}}<p>Completed on {{.CompletionDate.Format "January 2, 2006"}}</p>{{end}}
  <div class="meta">
    <p>Certificate No: {{.CertificateNumber}}</p>
    <p>Verification Code: {{.VerificationCode}}</p>
  </div>
</div>
</body>
</html>
`

func NewCertificateFileRenderer() *CertificateFileRenderer {
	return &CertificateFileRenderer{
		Dir:      config.AppConfig.CertificateDir,
		template: template.Must(template.New("certificate").Parse(certificateTemplate)),
	}
}

// Render writes the artifact and returns its path and size. The certificate
// number names the file since rendering happens before the row exists.
func (r *CertificateFileRenderer) Render(cert *courseModels.Certificate) (string, int64, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create certificate directory: %w", err)
	}

	var buf bytes.Buffer
	if err := r.template.Execute(&buf, cert); err != nil {
		return "", 0, fmt.Errorf("execute certificate template: %w", err)
	}

	path := filepath.Join(r.Dir, cert.CertificateNumber+".html")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", 0, fmt.Errorf("write certificate artifact: %w", err)
	}

	return path, int64(buf.Len()), nil
}

// Delete removes the artifact. A missing file is not an error.
func (r *CertificateFileRenderer) Delete(cert *courseModels.Certificate) error {
	if cert.ArtifactPath == "" {
		return nil
	}
	if err := os.Remove(cert.ArtifactPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
