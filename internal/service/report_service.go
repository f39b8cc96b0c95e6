package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"vocabhero/internal/config"
	"vocabhero/internal/models"
)

// EmailSender is the part of the SES client the report needs
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// ReportService emails progress summaries to a parent via Amazon SES
type ReportService struct {
	client    EmailSender
	progress  *ProgressService
	fromEmail string
	fromName  string
	to        string
	enabled   bool
	log       *zap.Logger
}

// NewReportService builds the SES client. Without a from address the
// service is disabled and sending is a logged no-op.
func NewReportService(ctx context.Context, cfg config.EmailConfig, progress *ProgressService, log *zap.Logger) (*ReportService, error) {
	s := &ReportService{
		progress:  progress,
		fromEmail: cfg.From,
		fromName:  cfg.FromName,
		to:        cfg.To,
		log:       log,
	}
	if cfg.From == "" {
		log.Info("progress reports disabled: email.from not configured")
		return s, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	s.client = sesv2.NewFromConfig(awsCfg)
	s.enabled = true
	log.Info("progress reports enabled", zap.String("from", cfg.From), zap.String("region", cfg.Region))
	return s, nil
}

// NewReportServiceWithSender is used when the caller already has a client
func NewReportServiceWithSender(client EmailSender, cfg config.EmailConfig, progress *ProgressService, log *zap.Logger) *ReportService {
	return &ReportService{
		client:    client,
		progress:  progress,
		fromEmail: cfg.From,
		fromName:  cfg.FromName,
		to:        cfg.To,
		enabled:   client != nil && cfg.From != "",
		log:       log,
	}
}

func (s *ReportService) IsEnabled() bool {
	return s.enabled
}

// Send emails the active profile's summary to to, or to the configured
// parent address when to is empty. A disabled service sends nothing.
func (s *ReportService) Send(ctx context.Context, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		to = s.to
	}
	if err := models.ValidateEmail(to); err != nil {
		return err
	}

	sum := s.progress.Summary(ctx)
	if !s.enabled {
		s.log.Info("skipping progress report (email disabled)", zap.String("profile", sum.Profile.Name))
		return nil
	}

	subject := fmt.Sprintf("%s's Vocab Hero progress", sum.Profile.Name)
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(reportHTML(sum)), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(reportText(sum)), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send report to %s: %w", to, err)
	}

	fields := []zap.Field{zap.String("to", to), zap.String("profile", sum.Profile.Name)}
	if out != nil && out.MessageId != nil {
		fields = append(fields, zap.String("message_id", *out.MessageId))
	}
	s.log.Info("progress report sent", fields...)
	return nil
}

func reportText(sum ProgressSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nHere is how %s is getting on with Vocab Hero.\n\n", sum.Profile.Name)
	fmt.Fprintf(&b, "Level: Year %d\n", sum.Profile.Level)
	fmt.Fprintf(&b, "XP: %d\n", sum.Stats.TotalXP)
	fmt.Fprintf(&b, "Streak: %d days\n", sum.Stats.Streak)
	fmt.Fprintf(&b, "Accuracy: %d%%\n", sum.Stats.Accuracy)
	fmt.Fprintf(&b, "Words mastered: %d\n", sum.Stats.MasteredWords)
	fmt.Fprintf(&b, "Word bank: %d words (%d starred, %d learning, %d mastered)\n",
		sum.TotalWords, sum.Starred, sum.Learning, sum.Mastered)
	fmt.Fprintf(&b, "Study plan: %d of %d tasks done\n", sum.TasksDone, sum.TasksTotal)
	for _, t := range sum.Profile.StudyPlan {
		mark := " "
		if t.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s\n", mark, t.Task)
	}
	b.WriteString("\n---\nThis is an automated email from Vocab Hero. Please do not reply.\n")
	return b.String()
}

func reportHTML(sum ProgressSummary) string {
	var tasks strings.Builder
	for _, t := range sum.Profile.StudyPlan {
		style := ""
		if t.IsCompleted {
			style = ` style="text-decoration: line-through; color: #666;"`
		}
		fmt.Fprintf(&tasks, "<li%s>%s</li>", style, html.EscapeString(t.Task))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #ef4444; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
		td { padding: 4px 12px 4px 0; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s's progress</h1>
		</div>
		<div class="content">
			<table>
				<tr><td>Level</td><td>Year %d</td></tr>
				<tr><td>XP</td><td>%d</td></tr>
				<tr><td>Streak</td><td>%d days</td></tr>
				<tr><td>Accuracy</td><td>%d%%</td></tr>
				<tr><td>Words mastered</td><td>%d</td></tr>
				<tr><td>Word bank</td><td>%d words (%d starred, %d learning, %d mastered)</td></tr>
			</table>
			<p><strong>Study plan:</strong> %d of %d tasks done</p>
			<ul>%s</ul>
		</div>
		<div class="footer">
			<p>This is an automated email from Vocab Hero. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(sum.Profile.Name), sum.Profile.Level, sum.Stats.TotalXP, sum.Stats.Streak,
		sum.Stats.Accuracy, sum.Stats.MasteredWords, sum.TotalWords, sum.Starred, sum.Learning,
		sum.Mastered, sum.TasksDone, sum.TasksTotal, tasks.String())
}
