package service

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/scoring"
	"neet_tracker_backend/pkg/logger"
	"neet_tracker_backend/pkg/mailer"
	"neet_tracker_backend/pkg/monitoring"
	"neet_tracker_backend/pkg/tracing"
	"text/template"

	"go.uber.org/zap"
)

const reportDateLayout = "02 Jan 2006, 15:04 MST"

// Report is a rendered results summary.
type Report struct {
	Subject string
	HTML    string
	Text    string
}

type chapterRow struct {
	Name string
	scoring.ChapterStats
}

type reportView struct {
	UserName      string
	Subject       model.Subject
	Date          string
	QuestionCount int
	Score         int
	Correct       int
	Wrong         int
	NotAttempted  int
	Chapters      []chapterRow
}

var resultsHTML = htmltemplate.Must(htmltemplate.New("results.html").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>NEET Test Results - {{.UserName}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #059669; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border-radius: 0 0 8px 8px; }
    .score { font-size: 24px; font-weight: bold; color: #059669; }
    .chapter-table { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .chapter-table th, .chapter-table td { padding: 8px; text-align: left; border-bottom: 1px solid #e5e7eb; }
    .footer { text-align: center; margin-top: 20px; color: #6b7280; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>NEET Test Results</h1>
      <p>Test completed by {{.UserName}}</p>
    </div>
    <div class="content">
      <h2>Test Summary</h2>
      <p><strong>Subject:</strong> {{.Subject}}</p>
      <p><strong>Date:</strong> {{.Date}}</p>
      <p><strong>Total Questions:</strong> {{.QuestionCount}}</p>
      <div class="score">Score: {{.Score}}</div>
      <p>Correct: {{.Correct}} &middot; Wrong: {{.Wrong}} &middot; Not Attempted: {{.NotAttempted}}</p>
      <h3>Chapter-wise Performance</h3>
      <table class="chapter-table">
        <thead>
          <tr><th>Chapter</th><th>Correct</th><th>Wrong</th><th>Not Attempted</th><th>Score</th></tr>
        </thead>
        <tbody>
        {{- range .Chapters}}
          <tr><td>{{.Name}}</td><td>{{.Correct}}</td><td>{{.Wrong}}</td><td>{{.NotAttempted}}</td><td>{{.Score}}</td></tr>
        {{- end}}
        </tbody>
      </table>
      <div class="footer">
        <p>This email was sent from Zenith World NEET Practice Tracker</p>
        <p>Keep practicing to improve your NEET preparation!</p>
      </div>
    </div>
  </div>
</body>
</html>
`))

var resultsText = template.Must(template.New("results.txt").Parse(`NEET Test Results for {{.UserName}}

Subject: {{.Subject}}
Date: {{.Date}}
Total Questions: {{.QuestionCount}}
Score: {{.Score}}

Performance:
- Correct: {{.Correct}}
- Wrong: {{.Wrong}}
- Not Attempted: {{.NotAttempted}}

Chapter-wise Performance:
{{range .Chapters}}{{.Name}}: {{.Correct}}C, {{.Wrong}}W, {{.NotAttempted}}NA, Score: {{.Score}}
{{end}}
Keep practicing to improve your NEET preparation!
`))

var welcomeText = template.Must(template.New("welcome.txt").Parse(`Welcome to Zenith World NEET Practice Tracker!

Hello {{.}}!

What you can do:
- Create and take practice tests for Physics, Chemistry, and Biology
- Track your performance over time
- View chapter-wise performance
- Get email notifications of your test results (if a guardian email is provided)

Best of luck with your NEET preparation!
Zenith World Team
`))

var welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Welcome to Zenith World</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h1>Welcome to Zenith World!</h1>
  <h2>Hello {{.}}!</h2>
  <p>Welcome to Zenith World NEET Practice Tracker. Start your first test now and begin tracking your progress!</p>
  <ul>
    <li>Create and take practice tests for Physics, Chemistry, and Biology</li>
    <li>Track your performance over time</li>
    <li>View chapter-wise performance</li>
    <li>Get email notifications of your test results (if a guardian email is provided)</li>
  </ul>
  <p>Best of luck with your NEET preparation!<br>Zenith World Team</p>
</body>
</html>
`))

type NotificationService struct {
	Sender mailer.Sender
}

func NewNotificationService(sender mailer.Sender) *NotificationService {
	return &NotificationService{Sender: sender}
}

func newReportView(user *model.User, record *model.TestRecord) reportView {
	view := reportView{
		UserName:      user.Name,
		Subject:       record.Subject,
		Date:          record.TakenAt.UTC().Format(reportDateLayout),
		QuestionCount: record.QuestionCount,
		Score:         record.Score,
		Correct:       record.Correct,
		Wrong:         record.Wrong,
		NotAttempted:  record.NotAttempted,
	}
	record.ByChapter.Each(func(key string, st scoring.ChapterStats) {
		view.Chapters = append(view.Chapters, chapterRow{Name: key, ChapterStats: st})
	})
	return view
}

// RenderTestResults renders the guardian summary. Chapters keep stored order.
func (s *NotificationService) RenderTestResults(user *model.User, record *model.TestRecord) (Report, error) {
	view := newReportView(user, record)

	var html, text bytes.Buffer
	if err := resultsHTML.Execute(&html, view); err != nil {
		return Report{}, err
	}
	if err := resultsText.Execute(&text, view); err != nil {
		return Report{}, err
	}

	return Report{
		Subject: "NEET Test Results - " + user.Name + " (" + string(record.Subject) + ")",
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// SendTestResults mails the summary to the guardian. It never returns an
// error; failures are logged and reported as false.
func (s *NotificationService) SendTestResults(ctx context.Context, user *model.User, record *model.TestRecord) bool {
	ctx, span := tracing.Tracer.Start(ctx, "NotificationService.SendTestResults")
	defer span.End()

	log := logger.Log.With(zap.String("user_id", user.ID), zap.String("record_id", record.RecordID))
	if !user.HasGuardian() {
		log.Info("no guardian email on file, skipping results email")
		monitoring.EmailsSent.WithLabelValues("results", "skipped").Inc()
		return false
	}

	report, err := s.RenderTestResults(user, record)
	if err != nil {
		log.Error("render results email", zap.Error(err))
		monitoring.EmailsSent.WithLabelValues("results", "failed").Inc()
		return false
	}

	return s.deliver(ctx, log, "results", mailer.Message{
		To:      user.GuardianEmail,
		Subject: report.Subject,
		Text:    report.Text,
		HTML:    report.HTML,
	})
}

func (s *NotificationService) SendWelcome(ctx context.Context, user *model.User) bool {
	log := logger.Log.With(zap.String("user_id", user.ID))

	var html, text bytes.Buffer
	if err := welcomeHTML.Execute(&html, user.Name); err != nil {
		log.Error("render welcome email", zap.Error(err))
		return false
	}
	if err := welcomeText.Execute(&text, user.Name); err != nil {
		log.Error("render welcome email", zap.Error(err))
		return false
	}

	return s.deliver(ctx, log, "welcome", mailer.Message{
		To:      user.Email,
		Subject: "Welcome to Zenith World NEET Practice Tracker!",
		Text:    text.String(),
		HTML:    html.String(),
	})
}

func (s *NotificationService) deliver(ctx context.Context, log *zap.Logger, kind string, msg mailer.Message) bool {
	if err := s.Sender.Send(ctx, msg); err != nil {
		log.Warn("email not sent", zap.String("kind", kind), zap.Error(err))
		monitoring.EmailsSent.WithLabelValues(kind, "failed").Inc()
		return false
	}
	log.Info("email sent", zap.String("kind", kind), zap.String("to", msg.To))
	monitoring.EmailsSent.WithLabelValues(kind, "sent").Inc()
	return true
}
