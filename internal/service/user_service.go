package service

import (
	"context"
	"errors"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository"
	"Forum_Hub/internal/repository/redis"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo     repository.UserRepository
	rUser    *redis.UserRepository
	emailSvc *EmailService
}

func NewUserService(repo repository.UserRepository, rUser *redis.UserRepository, emailSvc *EmailService) *UserService {
	return &UserService{
		repo:     repo,
		rUser:    rUser,
		emailSvc: emailSvc,
	}
}

func (s *UserService) Register(ctx context.Context, username, password, email, code string) error {
	if username == "" || password == "" || email == "" {
		return pkg.Validationf("username, password and email are required")
	}

	// 验证code是否正确
	ok, err := s.emailSvc.VerifyCode("register", email, code)
	if err != nil || !ok {
		return pkg.Authenticationf("verification failed")
	}

	if _, err = s.repo.FindByUsername(ctx, username); err == nil {
		return pkg.Conflictf("username already taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return pkg.Internalf("register failed")
	}
	if _, err = s.repo.FindByEmail(ctx, email); err == nil {
		return pkg.Conflictf("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return pkg.Internalf("register failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Internalf("register failed")
	}

	now := time.Now()
	user := &model.User{
		ID:        pkg.NewID(),
		Username:  username,
		Password:  string(hash),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.repo.Create(ctx, user); err != nil {
		return pkg.Internalf("register failed")
	}
	return nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, pkg.Authenticationf("invalid username or password")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.Authenticationf("invalid username or password")
	}
	// 将token写入redis
	token, err := pkg.GeneratePair(user.ID, user.Admin)
	if err != nil {
		return nil, pkg.Internalf("login failed")
	}
	if err = s.rUser.AddUserToken(user.ID, token.AccessToken); err != nil {
		return nil, pkg.Internalf("login failed")
	}
	return token, nil
}

func (s *UserService) Logout(userID string) error {
	if err := s.rUser.DeleteUserToken(userID); err != nil {
		return pkg.Internalf("logout failed")
	}
	return nil
}

func (s *UserService) ResetCode(ctx context.Context, email, code, newPassword string) error {
	// 校验code正确性
	ok, err := s.emailSvc.VerifyCode("reset", email, code)
	if err != nil || !ok {
		return pkg.Authenticationf("verification failed")
	}

	// 获取用户信息并更新密码
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return notFoundOrInternal(err, "user not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Internalf("reset password failed")
	}

	if err = s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return pkg.Internalf("reset password failed")
	}
	return nil
}

// Refresh 换发token对并同步redis里的会话，避免旧access token残留
func (s *UserService) Refresh(refreshToken string) (*pkg.Pair, error) {
	pair, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, pkg.Authenticationf("refresh token invalid")
	}
	claims, err := pkg.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, pkg.Internalf("refresh failed")
	}
	if err = s.rUser.AddUserToken(claims.UserID, pair.AccessToken); err != nil {
		return nil, pkg.Internalf("refresh failed")
	}
	return pair, nil
}

// ChangePassword 登录态修改密码，改完强制下线
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFoundOrInternal(err, "user not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.Authenticationf("old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Internalf("change password failed")
	}

	if err = s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return pkg.Internalf("change password failed")
	}

	return s.Logout(userID)
}

// Profile 公开资料摘要
func (s *UserService) Profile(ctx context.Context, userID string) (*AuthorSummary, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found")
	}
	return &AuthorSummary{ID: user.ID, Username: user.Username, Avatar: user.Avatar}, nil
}
