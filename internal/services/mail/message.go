package mail

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fgeck/gorsync-backup/internal/models"
)

// Compose renders a run summary into the subject and plain-text body of
// an operator notification.
func Compose(s models.RunSummary) models.MailMessage {
	var subject string
	switch {
	case !s.Success:
		subject = fmt.Sprintf("[gorsync-backup] FAILED on %s (%s)", s.Host, s.DateStamp)
	case s.DryRun:
		subject = fmt.Sprintf("[gorsync-backup] dry run completed on %s (%s)", s.Host, s.DateStamp)
	default:
		subject = fmt.Sprintf("[gorsync-backup] completed on %s (%s)", s.Host, s.DateStamp)
	}

	var b bytes.Buffer
	if s.Success {
		b.WriteString("Backup completed successfully.\n\n")
	} else {
		b.WriteString("Backup FAILED.\n\n")
	}

	fmt.Fprintf(&b, "Host:     %s\n", s.Host)
	fmt.Fprintf(&b, "Source:   %s\n", s.Source)
	fmt.Fprintf(&b, "Target:   %s\n", s.Target)
	fmt.Fprintf(&b, "Date:     %s\n", s.DateStamp)
	fmt.Fprintf(&b, "Started:  %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Second))

	if s.DryRun {
		b.WriteString("\nThis was a dry run; no files were changed.\n")
	}

	if !s.Success {
		b.WriteString("\n")
		if s.FailedStage != "" {
			fmt.Fprintf(&b, "Failed stage: %s\n", s.FailedStage)
		}
		if s.ExitCode != 0 {
			fmt.Fprintf(&b, "Sync exit status: %d\n", s.ExitCode)
		}
		fmt.Fprintf(&b, "Error: %s\n", s.ErrorMessage)
	}

	if s.JournalPath != "" {
		fmt.Fprintf(&b, "\nFull log: %s\n", s.JournalPath)
	}

	return models.MailMessage{Subject: subject, Body: b.String()}
}
