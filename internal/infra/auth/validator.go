package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/approval-desk/internal/domain"
)

// Validator проверяет входящие JWT, подписанные RS256,
// и собирает из claims уже проверенного Caller.
type Validator struct {
	publicKey *rsa.PublicKey
}

func NewValidator(pubKey *rsa.PublicKey) *Validator {
	return &Validator{publicKey: pubKey}
}

// VerifyToken проверяет подпись токена и извлекает личность вызывающего.
// Роли Zitadel разворачиваются здесь, дальше по коду ходит только
// плоский набор флагов — сервисный слой в форматы claims не заглядывает.
func (v *Validator) VerifyToken(tokenStr string) (*domain.Caller, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	tokenStr = strings.TrimSpace(tokenStr)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &domain.Caller{
		UserID: sub,
		Roles:  ExtractRoles(claims),
	}, nil
}

// ExtractRoles разворачивает claims Zitadel в плоский набор ролей.
// Роли проекта приходят JSON-объектом под ключом вида
// "urn:zitadel:iam:org:project:<id>:roles", где имена ролей — ключи объекта.
// Простые role-claims (строка или массив строк) тоже принимаются.
func ExtractRoles(claims jwt.MapClaims) map[string]bool {
	roles := make(map[string]bool)

	for key, val := range claims {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "role") &&
			!strings.Contains(lower, "urn:zitadel:iam:org:project") {
			continue
		}

		switch v := val.(type) {
		case map[string]interface{}:
			for name := range v {
				roles[name] = true
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					roles[s] = true
				}
			}
		case string:
			if v != "" {
				roles[v] = true
			}
		}
	}

	return roles
}

// ParseRSAPublicKey превращает []byte в объект для проверки подписи
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}
