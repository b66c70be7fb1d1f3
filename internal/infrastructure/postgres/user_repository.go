package postgres

import (
	"context"

	domain "catalog/backend/internal/domain/auth"
	"catalog/backend/internal/domain/page"
	"catalog/backend/internal/domain/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var userColumns = []string{"u.id", "u.first_name", "u.last_name", "u.email", "u.password_hash"}

var userSortable = map[string]string{
	"id":        "u.id",
	"firstName": "u.first_name",
	"lastName":  "u.last_name",
	"email":     "u.email",
}

// UserRepository persists users and their role grants in PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"u.id": id})
}

// FindByEmail fetches a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"u.email": email})
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	u, err := findUser(ctx, r.pool, where)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrEmptyResult
		}
		return nil, errors.Wrap(err, "find user")
	}
	return u, nil
}

// FindAll returns one page of users.
func (r *UserRepository) FindAll(ctx context.Context, req page.Request) (page.Page[*domain.User], error) {
	total, err := count(ctx, r.pool, psql.Select("COUNT(*)").From("tb_user u"))
	if err != nil {
		return page.Page[*domain.User]{}, err
	}

	rows, err := queryRows(ctx, r.pool, paginate(psql.Select(userColumns...).From("tb_user u"), req, userSortable, "u.id"))
	if err != nil {
		return page.Page[*domain.User]{}, errors.Wrap(err, "list users")
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return page.Page[*domain.User]{}, errors.Wrap(err, "list users")
	}
	if err := attachRoles(ctx, r.pool, users); err != nil {
		return page.Page[*domain.User]{}, err
	}
	return page.New(users, req, total), nil
}

// Save inserts or updates the user and rewrites its role grants. The password
// hash is only written on insert.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	var saved *domain.User
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		values := map[string]any{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
		}
		if user.ID == 0 {
			values["password_hash"] = user.PasswordHash
			if err := queryRow(ctx, tx, psql.Insert("tb_user").SetMap(values).Suffix("RETURNING id")).Scan(&id); err != nil {
				return err
			}
		} else {
			err := queryRow(ctx, tx, psql.Update("tb_user").
				SetMap(values).
				Where(sq.Eq{"id": user.ID}).
				Suffix("RETURNING id")).Scan(&id)
			if errors.Is(err, pgx.ErrNoRows) {
				return storage.ErrEntityNotFound
			}
			if err != nil {
				return err
			}
		}

		if _, err := execStmt(ctx, tx, psql.Delete("tb_user_role").Where(sq.Eq{"user_id": id})); err != nil {
			return err
		}
		if len(user.Roles) > 0 {
			insert := psql.Insert("tb_user_role").Columns("user_id", "role_id").Suffix("ON CONFLICT DO NOTHING")
			for _, role := range user.Roles {
				insert = insert.Values(id, role.ID)
			}
			if _, err := execStmt(ctx, tx, insert); err != nil {
				return err
			}
		}

		var err error
		saved, err = findUser(ctx, tx, sq.Eq{"u.id": id})
		return err
	})
	switch {
	case err == nil:
		return saved, nil
	case errors.Is(err, storage.ErrEntityNotFound):
		return nil, err
	case isUniqueViolation(err):
		return nil, domain.ErrEmailExists
	default:
		return nil, errors.Wrap(err, "save user")
	}
}

// DeleteByID removes a user by id.
func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	ct, err := execStmt(ctx, r.pool, psql.Delete("tb_user").Where(sq.Eq{"id": id}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrIntegrityViolation
		}
		return errors.Wrapf(err, "delete user %d", id)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrEmptyResult
	}
	return nil
}

func findUser(ctx context.Context, q querier, where sq.Eq) (*domain.User, error) {
	u, err := scanUser(queryRow(ctx, q, psql.Select(userColumns...).From("tb_user u").Where(where)))
	if err != nil {
		return nil, err
	}
	if err := attachRoles(ctx, q, []*domain.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func attachRoles(ctx context.Context, q querier, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.User, len(users))
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		u.Roles = []domain.Role{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	rows, err := queryRows(ctx, q, psql.Select("ur.user_id", "r.id", "r.authority").
		From("tb_role r").
		Join("tb_user_role ur ON ur.role_id = r.id").
		Where(sq.Eq{"ur.user_id": ids}).
		OrderBy("r.id"))
	if err != nil {
		return errors.Wrap(err, "load user roles")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID int64
			role   domain.Role
		)
		if err := rows.Scan(&userID, &role.ID, &role.Authority); err != nil {
			return errors.Wrap(err, "scan user role")
		}
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return errors.Wrap(rows.Err(), "load user roles")
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RoleRepository reads the seeded role rows.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository constructs a repository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

var _ domain.RoleRepository = (*RoleRepository)(nil)

// FindByAuthority returns storage.ErrEmptyResult for unseeded authorities.
func (r *RoleRepository) FindByAuthority(ctx context.Context, authority domain.Authority) (*domain.Role, error) {
	var role domain.Role
	err := queryRow(ctx, r.pool, psql.Select("id", "authority").
		From("tb_role").
		Where(sq.Eq{"authority": string(authority)})).Scan(&role.ID, &role.Authority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrEmptyResult
		}
		return nil, errors.Wrapf(err, "find role %s", authority)
	}
	return &role, nil
}
