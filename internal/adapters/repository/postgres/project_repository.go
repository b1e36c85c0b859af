package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	pgdb "github.com/ogurasousui/codex-staffing/internal/platform/db/postgres"
)

const projectColumns = `id, name, description, service_type, deadline, start_date, completed_at, completed, confirmed, assigned_user_ids::text[], team_leader_id, client_id, created_at, updated_at`

// ProjectRepository は PostgreSQL を利用したプロジェクト永続化の実装です。
type ProjectRepository struct {
	pool pgdb.Queryer
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(pool pgdb.Queryer) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create はプロジェクトを新規作成します。
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO projects (name, description, service_type, deadline, start_date, completed_at, completed, confirmed, assigned_user_ids, team_leader_id, client_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::text[]::uuid[], $10, $11, $12, $13)
        RETURNING `+projectColumns+`
    `,
		p.Name,
		p.Description,
		p.ServiceType,
		nullableDate(p.Deadline),
		nullableDate(&p.StartDate),
		nullableTime(p.CompletedAt),
		p.Completed,
		p.Confirmed,
		p.AssignedUserIDs,
		p.TeamLeaderID,
		p.ClientID,
		p.CreatedAt,
		p.UpdatedAt,
	)

	created, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return created, nil
}

// Update はプロジェクトの全項目を置き換えます。
func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	if !isUUID(p.ID) {
		return nil, project.ErrProjectNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE projects
           SET name = $1,
               description = $2,
               service_type = $3,
               deadline = $4,
               start_date = $5,
               completed_at = $6,
               completed = $7,
               confirmed = $8,
               assigned_user_ids = $9::text[]::uuid[],
               team_leader_id = $10,
               client_id = $11,
               updated_at = $12
         WHERE id = $13
        RETURNING `+projectColumns+`
    `,
		p.Name,
		p.Description,
		p.ServiceType,
		nullableDate(p.Deadline),
		nullableDate(&p.StartDate),
		nullableTime(p.CompletedAt),
		p.Completed,
		p.Confirmed,
		p.AssignedUserIDs,
		p.TeamLeaderID,
		p.ClientID,
		p.UpdatedAt,
		p.ID,
	)

	updated, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return updated, nil
}

// Delete はプロジェクトを削除します。
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return project.ErrProjectNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return translateProjectPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

// FindByID は ID でプロジェクトを取得します。
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*project.Project, error) {
	if !isUUID(id) {
		return nil, project.ErrProjectNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+projectColumns+`
          FROM projects
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// FindByClientAndStartDate は顧客と開始日が一致するプロジェクトを取得します。
func (r *ProjectRepository) FindByClientAndStartDate(ctx context.Context, clientID string, startDate time.Time) (*project.Project, error) {
	if !isUUID(clientID) {
		return nil, project.ErrProjectNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+projectColumns+`
          FROM projects
         WHERE client_id = $1
           AND start_date = $2
         LIMIT 1
    `, clientID, nullableDate(&startDate))

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// List はプロジェクトの一覧を取得します。
func (r *ProjectRepository) List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, string, error) {
	if filter.Limit <= 0 {
		return nil, "", project.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", project.ErrInvalidPageToken
	}

	// uuid でない ID はどの行にも一致しない。
	if (filter.AssignedUserID != "" && !isUUID(filter.AssignedUserID)) || (filter.ClientID != "" && !isUUID(filter.ClientID)) {
		return []*project.Project{}, "", nil
	}

	limitWithBuffer := filter.Limit + 1

	var p placeholders
	if filter.ExcludeID != "" && isUUID(filter.ExcludeID) {
		p.where("id <> " + p.add(filter.ExcludeID))
	}
	if filter.AssignedUserID != "" {
		p.where(p.add(filter.AssignedUserID) + "::uuid = ANY(assigned_user_ids)")
	}
	if filter.ClientID != "" {
		p.where("client_id = " + p.add(filter.ClientID))
	}
	if filter.Completed != nil {
		p.where("completed = " + p.add(*filter.Completed))
	}
	if filter.StartedOnOrBefore != nil {
		p.where("start_date <= " + p.add(nullableDate(filter.StartedOnOrBefore)))
	}
	whereClause := p.clause()
	limitPlaceholder := p.add(limitWithBuffer)
	offsetPlaceholder := p.add(filter.Offset)

	query := `
        SELECT ` + projectColumns + `
          FROM projects` + whereClause + `
         ORDER BY start_date DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, p.args...)
	if err != nil {
		return nil, "", translateProjectPgError(err)
	}
	defer rows.Close()

	projects := make([]*project.Project, 0, filter.Limit)
	for rows.Next() {
		found, err := scanProject(rows)
		if err != nil {
			return nil, "", translateProjectPgError(err)
		}
		projects = append(projects, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateProjectPgError(err)
	}

	var nextToken string
	if len(projects) == limitWithBuffer {
		projects = projects[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return projects, nextToken, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		id, name, description, serviceType string
		deadline, completedAt              sql.NullTime
		startDate                          time.Time
		completed, confirmed               bool
		assigned                           []string
		teamLeaderID, clientID             string
		createdAt, updatedAt               time.Time
	)

	if err := row.Scan(
		&id,
		&name,
		&description,
		&serviceType,
		&deadline,
		&startDate,
		&completedAt,
		&completed,
		&confirmed,
		&assigned,
		&teamLeaderID,
		&clientID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if assigned == nil {
		assigned = []string{}
	}

	return &project.Project{
		ID:              id,
		Name:            name,
		Description:     description,
		ServiceType:     serviceType,
		Deadline:        datePtr(deadline),
		StartDate:       time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC),
		CompletedAt:     timePtr(completedAt),
		Completed:       completed,
		Confirmed:       confirmed,
		AssignedUserIDs: assigned,
		TeamLeaderID:    teamLeaderID,
		ClientID:        clientID,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func translateProjectPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return project.ErrProjectNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return project.ErrDuplicateProject
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "projects_client_id_fkey":
				return client.ErrClientNotFound
			case "projects_team_leader_id_fkey":
				return user.ErrUserNotFound
			}
		}
	}

	return err
}
