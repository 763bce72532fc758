package auth

import (
	"errors"
	"time"

	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type JWT struct {
	logger    *zap.SugaredLogger
	jwtSecret string
}

type JWTInterface interface {
	GenerateRefreshAndAccessToken(payload JWTPayload) (*string, *string, error)
	VerifyJwtToken(token string) (*JWTClaims, error)
}

func NewJwt(cfg config.AuthConfig, logger *zap.SugaredLogger) *JWT {
	// For unit test
	if logger == nil {
		logger = util.NewLogger()
	}

	return &JWT{
		jwtSecret: cfg.JWT_SECRET,
		logger:    logger,
	}
}

type JWTPayload struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ProfileURL string `json:"profileURL"`
}

type JWTClaims struct {
	User JWTPayload `json:"user"`
	Type string     `json:"type"`
	IAT  int64      `json:"iat"`
	EXP  int64      `json:"exp"`
}

func (j JWT) generateToken(payload JWTPayload, tokenType string, ttl time.Duration) (*string, error) {
	claims := jwt.MapClaims{
		"user": payload,
		"type": tokenType,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &signed, nil
}

// Return refreshToken, accessToken, error
func (j JWT) GenerateRefreshAndAccessToken(payload JWTPayload) (*string, *string, error) {
	j.logger.Debugf("Generate refresh and access token with payload: %v", payload)

	// Refresh token with 7-day expiration
	refreshToken, err := j.generateToken(payload, constant.JWT_TYPE_REFRESH, 7*24*time.Hour)
	if err != nil {
		return nil, nil, err
	}

	// Access token with 5-minute expiration
	accessToken, err := j.generateToken(payload, constant.JWT_TYPE_ACCESS, 5*time.Minute)
	if err != nil {
		return nil, nil, err
	}

	return refreshToken, accessToken, nil
}

func (j JWT) VerifyJwtToken(token string) (*JWTClaims, error) {
	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(j.jwtSecret), nil
	})
	if err != nil {
		j.logger.Debugf("Failed to verify jwt token. Error: %v", err)
		return nil, err
	}

	if !parsedToken.Valid {
		j.logger.Debug("Jwt token is not valid")
		return nil, errors.New("jwt token is not valid")
	}

	user, ok := claims["user"].(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid token: user field is missing or malformed")
	}

	tokenType, _ := claims["type"].(string)

	strField := func(key string) string {
		val, _ := user[key].(string)
		return val
	}

	return &JWTClaims{
		User: JWTPayload{
			ID:         strField("id"),
			Email:      strField("email"),
			FirstName:  strField("firstName"),
			LastName:   strField("lastName"),
			ProfileURL: strField("profileURL"),
		},
		Type: tokenType,
		IAT:  int64(claims["iat"].(float64)),
		EXP:  int64(claims["exp"].(float64)),
	}, nil
}
