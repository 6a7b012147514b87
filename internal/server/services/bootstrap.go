package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/logging"
)

type BootstrapAdminInput struct {
	Username string
	Email    string
	// Password may be empty, in which case one is generated and logged once.
	Password string
}

// BootstrapAdmin creates an Admin account unless one already exists. It
// reports whether a user was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, in BootstrapAdminInput, log logging.Logger) (bool, error) {
	exists, err := s.repomanager.Users(s.db).ExistsWithRole(ctx, common.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}

	password := in.Password
	generated := password == ""
	if generated {
		if password, err = common.MakeRandHexString(12); err != nil {
			return false, fmt.Errorf("generate admin password: %w", err)
		}
	}

	user, err := s.Register(ctx, RegisterInput{
		Username: in.Username,
		Password: password,
		Role:     common.RoleAdmin,
		Email:    in.Email,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return false, fmt.Errorf("bootstrap admin: username %q is taken by a non-admin user", in.Username)
		}
		return false, err
	}

	if generated {
		log.Warn(ctx, "bootstrap admin created with generated password; change it", "username", user.UserName, "password", password)
	} else {
		log.Info(ctx, "bootstrap admin created", "username", user.UserName)
	}
	return true, nil
}
