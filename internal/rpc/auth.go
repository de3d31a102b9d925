// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	tokenIssuer = "querydesk"
	tokenTTL    = 5 * time.Minute
	// Tokens are renewed this long before they expire.
	tokenSlack = 30 * time.Second
)

// authInterceptor rejects calls without a valid HS256 bearer token.
func authInterceptor(secret []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := authenticate(ctx, secret); err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(ctx, req)
	}
}

func authenticate(ctx context.Context, secret []byte) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return fmt.Errorf("missing metadata")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return fmt.Errorf("missing authorization header")
	}
	raw, found := strings.CutPrefix(values[0], "Bearer ")
	if !found {
		return fmt.Errorf("authorization header must use the Bearer scheme")
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// MintToken signs a short-lived token for the given subject.
func MintToken(secret []byte, subject string, now time.Time) (string, time.Time, error) {
	exp := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// bearerCredentials attaches a freshly minted token to every call.
type bearerCredentials struct {
	secret  []byte
	subject string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func (b *bearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.token == "" || now.Add(tokenSlack).After(b.expiry) {
		token, exp, err := MintToken(b.secret, b.subject, now)
		if err != nil {
			return nil, fmt.Errorf("sign token: %w", err)
		}
		b.token, b.expiry = token, exp
	}
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

// RequireTransportSecurity is false: the server listens on loopback by default.
func (b *bearerCredentials) RequireTransportSecurity() bool { return false }
