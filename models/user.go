package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username"`
	Name      string    `gorm:"size:100;not null" json:"nombre"`
	Password  string    `gorm:"size:255;not null" json:"password,omitempty"`
	Role      UserRole  `gorm:"size:20;not null;default:empleado" json:"rol"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"nombre" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"rol" binding:"required"`
	IsActive *bool    `json:"is_active"`
}

type LoginInfo struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Name     string   `json:"nombre"`
	Role     UserRole `json:"rol"`
}

/*
caches:
	User:$username
	Token:$token -> username
	Tokens:$username -> set of tokens
*/

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func (result *User) PrepareGive() {
	result.Password = ""
}

// GetSessionUser resolves a username through the redis cache, falling back to the table.
func GetSessionUser(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetSessionUser", "reading cached user", username, err)
	}
	if exists {
		return &user, nil
	}

	err = config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("username = ?", username).Take(&user).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("get session user", err)
	}
	user.PrepareGive()
	if err := config.SetRedisObject("User:"+username, &user, config.TokenLifespan()); err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetSessionUser", "caching user", username, err)
	}
	return &user, nil
}

// Login checks credentials and, when redis is available, opens a session token.
func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, utils.NewValidationError("username", "username and password are required")
	}

	var user User
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("username = ?", username).Take(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorUnauthorized
		}
		return nil, utils.TranslateDBError("login", err)
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, err
	}
	if !utils.DereferencePtr(user.IsActive) {
		return nil, utils.ErrorUnauthorized
	}

	result := LoginInfo{
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	}
	if config.GetRedisDB() == nil {
		return &result, nil
	}

	token := uuid.New().String()
	if err := config.AddRedisSet("Tokens:"+user.Username, token); err != nil {
		return nil, &utils.UpstreamError{Service: "session store", Err: err}
	}
	if err := config.SetRedisValue("Token:"+token, user.Username, config.TokenLifespan()); err != nil {
		return nil, &utils.UpstreamError{Service: "session store", Err: err}
	}
	result.Token = token
	return &result, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, utils.NewValidationError("token", "is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, &utils.UpstreamError{Service: "session store", Err: err}
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return true, nil
	}
	if err := config.RemoveRedisSetMember("Tokens:"+username, token); err != nil {
		return false, &utils.UpstreamError{Service: "session store", Err: err}
	}
	return true, nil
}

func (user *User) DestroyAllSessions() error {
	allTokens, err := config.GetRedisSetMembers("Tokens:" + user.Username)
	if err != nil {
		return err
	}
	for _, token := range allTokens {
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return err
		}
	}
	return config.RemoveRedisKey("Tokens:" + user.Username)
}

// SaveUser creates the user or, when the username exists, resets its name,
// password, role and active flag. Existing sessions are dropped on update.
func SaveUser(ctx context.Context, input *NewUser) (*User, bool, error) {
	username := html.EscapeString(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, false, utils.NewValidationError("username", "is required")
	}
	if len(input.Password) < 6 {
		return nil, false, utils.NewValidationError("password", "must have at least 6 characters")
	}
	if !input.Role.IsValid() {
		return nil, false, utils.NewValidationError("rol", "must be supervisor or empleado")
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, false, err
	}
	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	var user User
	created := false
	err = config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("username = ?", username).Take(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				user = User{
					Username: username,
					Name:     strings.TrimSpace(input.Name),
					Password: hashed,
					Role:     input.Role,
					IsActive: isActive,
				}
				created = true
				return tx.Create(&user).Error
			} else if err != nil {
				return err
			}
			user.Name = strings.TrimSpace(input.Name)
			user.Password = hashed
			user.Role = input.Role
			user.IsActive = isActive
			return tx.Model(&User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
				"name":      user.Name,
				"password":  user.Password,
				"role":      user.Role,
				"is_active": *user.IsActive,
			}).Error
		})
	})
	if err != nil {
		return nil, false, utils.TranslateDBError("save user", err)
	}
	if !created {
		if err := user.RemoveInstanceRedis(); err != nil {
			config.LogError(config.GetLogger(), "user.go", "SaveUser", "dropping cached user", username, err)
		}
		if err := user.DestroyAllSessions(); err != nil {
			config.LogError(config.GetLogger(), "user.go", "SaveUser", "dropping sessions", username, err)
		}
	}
	user.PrepareGive()
	return &user, created, nil
}
