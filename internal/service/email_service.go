package service

import (
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository/redis"
)

type EmailService struct {
	emailCfg pkg.SMTPConfig
	rds      *redis.EmailRepository
}

func NewEmailService(cfg pkg.SMTPConfig, rds *redis.EmailRepository) *EmailService {
	return &EmailService{emailCfg: cfg, rds: rds}
}

// SendRegisterCode 发送注册验证码
func (s *EmailService) SendRegisterCode(email string) error {
	return s.sendCode("register", email, "注册验证", "注册验证码")
}

// SendResetCode 发送重置密码验证码
func (s *EmailService) SendResetCode(email string) error {
	return s.sendCode("reset", email, "重置密码", "密码重置验证码")
}

func (s *EmailService) sendCode(scope, email, title, subject string) error {
	if !s.emailCfg.Enabled() {
		return pkg.Internalf("email delivery is not configured")
	}

	code, err := pkg.RandDigits(6)
	if err != nil {
		return pkg.Internalf("generate code failed")
	}

	// 先写入pending键
	if err = s.rds.SetCodePending(scope, email, code); err != nil {
		return pkg.Internalf("store code failed")
	}

	html := pkg.EmailCodeHTML(title, code, redis.DefaultEmailCodeTTL)
	if err = pkg.SendEmail(s.emailCfg, email, subject, html); err != nil {
		_ = s.rds.DeleteCodePending(scope, email)
		return pkg.Internalf("send email failed")
	}

	// 邮件发送后再将pending转为confirmed
	if err = s.rds.ConfirmCode(scope, email); err != nil {
		// 如果确认失败，清除pending键
		_ = s.rds.DeleteCodePending(scope, email)
		return pkg.Internalf("confirm code failed")
	}

	return nil
}

// VerifyCode 校验验证码并一次性删除
func (s *EmailService) VerifyCode(scope, email, code string) (bool, error) {
	val, err := s.rds.GetEmailCode(scope, email)
	if err != nil {
		// redis.Nil 表示不存在或已过期
		return false, err
	}
	if val != code {
		return false, nil
	}
	if err = s.rds.DeleteEmailCode(scope, email); err != nil {
		return false, err
	}
	return true, nil
}
