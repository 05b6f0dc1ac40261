// internal/store/directory.go
package store

import (
	"context"

	"school-pickup/internal/common/database"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/models"
	"school-pickup/internal/pagination"
)

const studentQuery = `
	SELECT
		s.id, COALESCE(s.full_name, '') AS full_name, s.profile_image, s.code, s.class, s.stage,
		s.school_id, s.parent_id,
		sc.id AS "school.id", sc.name AS "school.name", sc.logo AS "school.logo",
		sc.status AS "school.status", sc.closed_time::text AS "school.closed_time"
	FROM students s
	JOIN schools sc ON sc.id = s.school_id
	WHERE s.id = $1 AND s.deleted_at IS NULL`

var userColumns = []string{"u.id", "u.email", "u.phone_number", "u.role", "u.school_id", "u.player_ids"}

// Directory reads the people and schools that receipt requests refer to.
type Directory struct {
	pg *database.PostgresClient
}

func NewDirectory(pg *database.PostgresClient) *Directory {
	return &Directory{pg: pg}
}

// GetStudent loads a student together with its school.
func (d *Directory) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var st models.Student
	err := d.pg.X.GetContext(ctx, &st, studentQuery, id)
	if isNoRows(err) {
		return nil, apperrors.NewNotFoundError("student", id)
	}
	if err != nil {
		return nil, queryErr("get student", err)
	}
	return &st, nil
}

func (d *Directory) DeliveryPersonExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := d.pg.X.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM delivery_persons WHERE id = $1 AND deleted_at IS NULL)`, id)
	if err != nil {
		return false, queryErr("check delivery person", err)
	}
	return exists, nil
}

// DeactivateSchool marks a school INACTIVE.
func (d *Directory) DeactivateSchool(ctx context.Context, schoolID int64) error {
	_, err := d.pg.X.ExecContext(ctx,
		`UPDATE schools SET status = $2, updated_at = NOW() WHERE id = $1`, schoolID, models.SchoolInactive)
	if err != nil {
		return queryErr("deactivate school", err)
	}
	return nil
}

// FindTargetUsers returns the users selected by every set selector of target.
// VendorIDs select users attached to those schools.
func (d *Directory) FindTargetUsers(ctx context.Context, target models.NotificationTarget) ([]models.User, error) {
	if target.Empty() {
		return nil, nil
	}

	q := pagination.NewQuery("users", "u").Select(userColumns...).Where("u.deleted_at IS NULL")
	if len(target.UserIDs) > 0 {
		q.WhereIn("u.id", target.UserIDs)
	}
	if len(target.VendorIDs) > 0 {
		q.WhereIn("u.school_id", target.VendorIDs)
	}
	if target.Admins {
		q.Where("u.role = ?", models.RoleSchool)
	}
	if target.AllUsers {
		q.Where("u.role <> ?", models.RoleSchool)
	}
	query, args := q.SQL("u.id ASC", 0)

	var users []models.User
	if err := d.pg.X.SelectContext(ctx, &users, d.pg.X.Rebind(query), args...); err != nil {
		return nil, queryErr("find target users", err)
	}
	return users, nil
}

func (d *Directory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query, args := pagination.NewQuery("users", "u").
		Select(userColumns...).
		Where("u.id = ?", id).
		Where("u.deleted_at IS NULL").
		SQL("", 0)

	var u models.User
	err := d.pg.X.GetContext(ctx, &u, d.pg.X.Rebind(query), args...)
	if isNoRows(err) {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, queryErr("get user", err)
	}
	return &u, nil
}

// SetPlayerIDs replaces the device registrations of a user.
func (d *Directory) SetPlayerIDs(ctx context.Context, userID int64, ids models.PlayerIDs) error {
	res, err := d.pg.X.ExecContext(ctx,
		`UPDATE users SET player_ids = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, userID, ids)
	if err != nil {
		return queryErr("set player ids", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("user", userID)
	}
	return nil
}
