package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dropout-risk-service/internal/core/domain"
	"dropout-risk-service/internal/core/ports/output"
)

type predictionRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionRepository(pool *pgxpool.Pool) ports.PredictionRepository {
	return &predictionRepo{pool: pool}
}

func (r *predictionRepo) Save(ctx context.Context, p *domain.StoredPrediction) error {
	featuresJSON, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	query := `
		INSERT INTO predictions
			(id, student_id, risk_level, dropout_probability, model_version,
			 source, department, features, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err = r.pool.Exec(ctx, query,
		p.ID, p.StudentID, string(p.RiskLevel), p.DropoutProbability, p.ModelVersion,
		string(p.Source), p.Department, featuresJSON, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return fmt.Errorf("%w: %s", domain.ErrInvalidRiskLevel, p.RiskLevel)
		}
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (r *predictionRepo) ListByStudent(ctx context.Context, filter ports.HistoryFilter) ([]*domain.StoredPrediction, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM predictions WHERE student_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, filter.StudentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	query := `
		SELECT id, student_id, risk_level, dropout_probability, model_version,
			   source, department, features, created_at
		FROM predictions
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.StudentID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	items := []*domain.StoredPrediction{}
	for rows.Next() {
		var (
			p            domain.StoredPrediction
			riskLevel    string
			source       string
			featuresJSON []byte
		)
		if err := rows.Scan(
			&p.ID, &p.StudentID, &riskLevel, &p.DropoutProbability, &p.ModelVersion,
			&source, &p.Department, &featuresJSON, &p.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan prediction: %w", err)
		}
		p.RiskLevel = domain.RiskLevel(riskLevel)
		p.Source = domain.PredictionSource(source)
		if err := json.Unmarshal(featuresJSON, &p.Features); err != nil {
			return nil, 0, fmt.Errorf("unmarshal features: %w", err)
		}
		items = append(items, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate predictions: %w", err)
	}

	return items, total, nil
}

func (r *predictionRepo) Stats(ctx context.Context, filter domain.StatsFilter) (*domain.RiskStats, error) {
	query, args := buildStatsQuery(filter)

	var stats domain.RiskStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.AvgProbability, &stats.HighRisk, &stats.MediumRisk, &stats.LowRisk,
	); err != nil {
		return nil, fmt.Errorf("prediction stats: %w", err)
	}
	return &stats, nil
}

func (r *predictionRepo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

func buildStatsQuery(filter domain.StatsFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.Department != nil {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argPos))
		args = append(args, *filter.Department)
		argPos++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, filter.Since)
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
			   COALESCE(AVG(dropout_probability), 0),
			   COUNT(*) FILTER (WHERE risk_level = 'high'),
			   COUNT(*) FILTER (WHERE risk_level = 'medium'),
			   COUNT(*) FILTER (WHERE risk_level = 'low')
		FROM predictions
		WHERE %s
	`, whereClause)
	return query, args
}
