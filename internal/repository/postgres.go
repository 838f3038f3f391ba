package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threatforge/detection-platform/internal/models"
)

const opTimeout = 10 * time.Second

// PostgresRepository persists detections in Postgres via pgx. Secondary
// indexes are provisioned by a background goroutine at construction time so
// a slow or failing CREATE INDEX never blocks request serving.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(ctx context.Context, connString string, logger *slog.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	repo := &PostgresRepository{pool: pool, logger: logger}
	go repo.ensureIndexes(context.Background())

	return repo, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// CreateDetection inserts the detection and its initial version in a single
// transaction. If the version is not supplied by the caller one is built
// from the detection itself.
func (r *PostgresRepository) CreateDetection(ctx context.Context, d *models.Detection, initial *models.DetectionVersion) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if d.ID == "" {
		idUUID, _ := uuid.NewV7()
		d.ID = idUUID.String()
	}
	if initial == nil {
		versionUUID, _ := uuid.NewV7()
		initial = &models.DetectionVersion{
			ID:          versionUUID.String(),
			DetectionID: d.ID,
			Content:     d.Content,
			Changes:     "Initial version",
			AuthorID:    d.OwnerID,
			CreatedAt:   d.CreatedAt,
		}
	}

	metadataJSON, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO detections
		(id, name, description, content, platform_type, version, owner_id, org_id,
		 metadata, tags, quality_score, translation_accuracy, performance_score,
		 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		d.ID, d.Name, d.Description, d.Content, d.PlatformType, d.Version,
		d.OwnerID, d.OrgID, metadataJSON, d.Tags, d.QualityScore,
		d.TranslationAccuracy, d.PerformanceScore, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO detection_versions
		(id, detection_id, content, changes, author_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		initial.ID, initial.DetectionID, initial.Content, initial.Changes,
		initial.AuthorID, initial.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert initial version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetDetection(ctx context.Context, id string) (*models.Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, content, platform_type, version, owner_id,
		       org_id, metadata, tags, quality_score, translation_accuracy,
		       performance_score, created_at, updated_at
		FROM detections
		WHERE id = $1`, id)

	d, err := scanDetection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDetectionNotFound
		}
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return d, nil
}

// ListDetections returns one page sorted by creation time descending.
// Pagination is cursor-based: the id of the last item of the previous page
// is an exclusive lower bound. Detection ids are UUIDv7, so id ordering
// matches creation-time ordering and a single index serves both.
func (r *PostgresRepository) ListDetections(ctx context.Context, opts ListOptions) ([]*models.Detection, string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}

	where := "WHERE 1=1"
	args := []interface{}{}
	argCount := 0

	if opts.Platform != "" {
		argCount++
		where += fmt.Sprintf(" AND platform_type = $%d", argCount)
		args = append(args, opts.Platform)
	}
	if len(opts.Tags) > 0 {
		argCount++
		where += fmt.Sprintf(" AND tags @> $%d", argCount)
		args = append(args, opts.Tags)
	}
	if opts.Cursor != "" {
		argCount++
		where += fmt.Sprintf(" AND id < $%d", argCount)
		args = append(args, opts.Cursor)
	}

	query := `
		SELECT id, name, description, content, platform_type, version, owner_id,
		       org_id, metadata, tags, quality_score, translation_accuracy,
		       performance_score, created_at, updated_at
		FROM detections ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argCount+1)
	args = append(args, opts.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	var detections []*models.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("list detections: %w", err)
	}

	nextCursor := ""
	if len(detections) == opts.PageSize {
		nextCursor = detections[len(detections)-1].ID
	}
	return detections, nextCursor, nil
}

func (r *PostgresRepository) ListVersions(ctx context.Context, detectionID string) ([]*models.DetectionVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, detection_id, content, changes, author_id, created_at
		FROM detection_versions
		WHERE detection_id = $1
		ORDER BY created_at DESC, id DESC`, detectionID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.DetectionVersion
	for rows.Next() {
		var v models.DetectionVersion
		if err := rows.Scan(&v.ID, &v.DetectionID, &v.Content, &v.Changes, &v.AuthorID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, ErrDetectionNotFound
	}
	return versions, nil
}

// InsertValidationResult appends a write-once validation-history record.
// History rows are never updated; the retention sweeper removes them after
// the configured window.
func (r *PostgresRepository) InsertValidationResult(ctx context.Context, result *models.ValidationResult) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	issuesJSON, err := json.Marshal(result.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	idUUID, _ := uuid.NewV7()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO validation_results
		(id, detection_id, platform_type, issues, quality_score,
		 performance_impact, false_positive_rate, accuracy_score, validated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		idUUID.String(), result.DetectionID, result.PlatformType, issuesJSON,
		result.QualityScore, result.PerformanceImpact, result.FalsePositiveRate,
		result.AccuracyScore, result.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation result: %w", err)
	}
	return nil
}

// RunRetentionSweeper deletes validation-history records older than the
// retention window, on the given interval, until ctx is cancelled. Postgres
// has no TTL index, so expiry is an explicit sweep.
func (r *PostgresRepository) RunRetentionSweeper(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-window)
			tag, err := r.pool.Exec(ctx, `DELETE FROM validation_results WHERE validated_at < $1`, cutoff)
			if err != nil {
				r.logger.WarnContext(ctx, "validation history sweep failed", "error", err)
				continue
			}
			if tag.RowsAffected() > 0 {
				r.logger.DebugContext(ctx, "validation history swept",
					"deleted", tag.RowsAffected(), "cutoff", cutoff)
			}
		}
	}
}

// ensureIndexes provisions the secondary indexes the list and history query
// shapes need. Failures are logged and never fatal: the repository serves
// requests either way, just slower.
func (r *PostgresRepository) ensureIndexes(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_detections_platform_created
		 ON detections (platform_type, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_tags
		 ON detections USING GIN (tags)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_quality
		 ON detections (quality_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_versions_detection_created
		 ON detection_versions (detection_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_validation_results_validated_at
		 ON validation_results (validated_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			r.logger.WarnContext(ctx, "index provisioning failed", "error", err)
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetection(row rowScanner) (*models.Detection, error) {
	var d models.Detection
	var metadataJSON []byte
	if err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.Content, &d.PlatformType, &d.Version,
		&d.OwnerID, &d.OrgID, &metadataJSON, &d.Tags, &d.QualityScore,
		&d.TranslationAccuracy, &d.PerformanceScore, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &d.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &d, nil
}
