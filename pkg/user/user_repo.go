package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT id, uid, username, display_name FROM users WHERE id = $1`
	var user User
	err := u.db.QueryRow(ctx, query, id).Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT id, uid, username, display_name FROM users WHERE uid = $1`
	var user User
	err := u.db.QueryRow(ctx, query, uid).Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}
