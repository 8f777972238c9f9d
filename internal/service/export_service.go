package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	"github.com/alpha10/acs-api/pkg/export"
	"github.com/alpha10/acs-api/pkg/storage"
)

type exportDirectory interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type exportApplications interface {
	ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.TeacherApplication, error)
}

type exportClasses interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds directory and catalog datasets and persists rendered
// files.
type ExportService struct {
	directory    exportDirectory
	applications exportApplications
	classes      exportClasses
	storage      fileStorage
	csv          csvRenderer
	pdf          pdfRenderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(directory exportDirectory, applications exportApplications, classes exportClasses, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		directory:    directory,
		applications: applications,
		classes:      classes,
		storage:      store,
		csv:          csv,
		pdf:          pdf,
		signer:       signer,
		logger:       logger,
		cfg:          cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeUsers:
		return s.buildUserDataset(ctx, job.Params)
	case models.ExportTypeApplications:
		return s.buildApplicationDataset(ctx, job.Params)
	case models.ExportTypeClasses:
		return s.buildClassDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildUserDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.UserFilter{PageSize: 100}
	if params.Role != nil && *params.Role != "" {
		role := models.Role(*params.Role)
		filter.Role = &role
	}

	var all []models.User
	for page := 1; ; page++ {
		filter.Page = page
		users, total, err := s.directory.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		all = append(all, users...)
		if len(all) >= total || len(users) == 0 {
			break
		}
	}

	rows := make([]map[string]string, 0, len(all))
	for _, user := range all {
		rows = append(rows, map[string]string{
			"Email":      user.Email,
			"Name":       user.Name,
			"Role":       string(user.Role),
			"Created At": user.CreatedAt.UTC().Format(time.RFC3339),
			"Last Login": user.LastLogIn.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Email", "Name", "Role", "Created At", "Last Login"},
		Rows:    rows,
	}
	return dataset, "Directory Export", nil
}

func (s *ExportService) buildApplicationDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	statuses := []models.ApplicationStatus{models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected}
	if params.Status != nil && *params.Status != "" {
		statuses = []models.ApplicationStatus{models.ApplicationStatus(*params.Status)}
	}

	var all []models.TeacherApplication
	for _, status := range statuses {
		apps, err := s.applications.ListByStatus(ctx, status)
		if err != nil {
			return export.Dataset{}, "", err
		}
		all = append(all, apps...)
	}

	rows := make([]map[string]string, 0, len(all))
	for _, app := range all {
		rows = append(rows, map[string]string{
			"Email":        app.Email,
			"Name":         app.Name,
			"Category":     app.Category,
			"Experience":   app.Experience,
			"Status":       string(app.Status),
			"Submitted At": app.SubmittedAt.UTC().Format(time.RFC3339),
			"Reviewed By":  derefString(app.ReviewedBy),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Email", "Name", "Category", "Experience", "Status", "Submitted At", "Reviewed By"},
		Rows:    rows,
	}
	return dataset, "Teacher Applications Export", nil
}

func (s *ExportService) buildClassDataset(ctx context.Context) (export.Dataset, string, error) {
	filter := models.ClassFilter{PageSize: 100}

	var all []models.Class
	for page := 1; ; page++ {
		filter.Page = page
		classes, total, err := s.classes.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		all = append(all, classes...)
		if len(all) >= total || len(classes) == 0 {
			break
		}
	}

	rows := make([]map[string]string, 0, len(all))
	for _, class := range all {
		rows = append(rows, map[string]string{
			"Title":         class.Title,
			"Teacher":       class.TeacherName,
			"Teacher Email": class.TeacherEmail,
			"Created At":    class.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Title", "Teacher", "Teacher Email", "Created At"},
		Rows:    rows,
	}
	return dataset, "Class Catalog Export", nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
