package user

import (
	"context"
)

type StubUserRepository struct {
	nextId int
	data   map[int]User
}

func NewStubUserRepository() *StubUserRepository {
	nextId := 2
	data := map[int]User{}
	return &StubUserRepository{nextId: nextId, data: data}
}

func (s *StubUserRepository) AddUser(user User) User {
	s.nextId++
	user.Id = s.nextId
	s.data[s.nextId] = user
	return user
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	for _, user := range s.data {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}
