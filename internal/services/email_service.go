package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// ImportNotifier tells an account owner how an import turned out.
type ImportNotifier interface {
	SendImportSummary(ctx context.Context, to string, summary *models.ImportSummary) error
}

// NoopNotifier sends nothing. It is used when email is not configured.
type NoopNotifier struct{}

func (NoopNotifier) SendImportSummary(context.Context, string, *models.ImportSummary) error {
	return nil
}

// sesAPI is the part of the SES client the notifier uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESNotifier sends import summaries using AWS SES
type AWSSESNotifier struct {
	sesClient   sesAPI
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESNotifier creates a notifier using the default AWS credential chain
func NewAWSSESNotifier(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*AWSSESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendImportSummary emails the outcome of an import to the owner
func (s *AWSSESNotifier) SendImportSummary(ctx context.Context, to string, summary *models.ImportSummary) error {
	if to == "" {
		return nil
	}

	subject := fmt.Sprintf("Import of %s: %d added", summary.FileName, summary.Succeeded)
	body := importSummaryText(summary)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send import summary via SES",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("import summary email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

func importSummaryText(summary *models.ImportSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your import of %s has finished.\n\n", summary.FileName)
	fmt.Fprintf(&b, "Records in file:        %d\n", summary.Total)
	fmt.Fprintf(&b, "Added:                  %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Skipped as duplicates:  %d\n", summary.SkippedDuplicates)
	fmt.Fprintf(&b, "Failed:                 %d\n", summary.Failed)
	if summary.NotAttempted > 0 {
		fmt.Fprintf(&b, "Not attempted:          %d\n", summary.NotAttempted)
	}
	if summary.FailureReason != "" {
		fmt.Fprintf(&b, "\nThe import stopped early: %s\n", summary.FailureReason)
	}
	if len(summary.Rejected) > 0 {
		b.WriteString("\nRejected rows:\n")
		for _, r := range summary.Rejected {
			fmt.Fprintf(&b, "  - %s\n", r.Error())
		}
	}
	b.WriteString("\nThis is an automated message. Please do not reply to this email.\n")
	return b.String()
}
