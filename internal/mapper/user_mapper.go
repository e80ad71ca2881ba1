package mapper

import "ai-docview/internal/entity"

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

// ToUser renders an account the way the login endpoint returns it.
func (m *UserMapper) ToUser(a *entity.Account) entity.User {
	if a == nil {
		return nil
	}
	u := entity.User{
		"id":    a.Id,
		"email": a.Email,
		"name":  a.FullName,
	}
	if a.AvatarURL != "" {
		u["image"] = a.AvatarURL
	}
	return u
}
