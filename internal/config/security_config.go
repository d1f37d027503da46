package config

import "golang.org/x/crypto/bcrypt"

const (
	clientSecretLengthVar = "CLIENT_SECRET_LENGTH"
	passwordHashCostVar   = "PASSWORD_HASH_COST"
)

type SecurityConfig interface {
	GetClientSecretLength() int
	GetPasswordHashCost() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetClientSecretLength() int {
	return GetEnvInt(clientSecretLengthVar, 32)
}

func (Security) GetPasswordHashCost() int {
	cost := GetEnvInt(passwordHashCostVar, bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
