package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	sent []*gomail.Message
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return nil
}

func TestSendAttachment(t *testing.T) {
	d := &captureDialer{}
	svc := NewService(d, "ward@hospital.local")

	err := svc.SendAttachment(context.Background(), []string{"records@hospital.local"},
		"patients report", "attached", "patients_report_20260301.csv", []byte("Patient ID,Name\n"))
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"records@hospital.local"}, m.GetHeader("To"))
	assert.Equal(t, []string{"patients report"}, m.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err = m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "patients_report_20260301.csv")
}

func TestSendAttachmentNeedsRecipients(t *testing.T) {
	svc := NewService(&captureDialer{}, "ward@hospital.local")

	assert.Error(t, svc.SendAttachment(context.Background(), nil, "s", "b", "f.csv", nil))
}
