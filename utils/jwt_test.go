package utils

import (
	"testing"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	id := primitive.NewObjectID()

	token, err := m.GenerateJWT(id, models.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.UserID)

	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.True(t, p.IsAdmin())
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour).GenerateJWT(primitive.NewObjectID(), models.RoleUser)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.GenerateJWT(primitive.NewObjectID(), models.RoleUser)
	require.NoError(t, err)

	_, err = m.ValidateJWT(token)
	assert.Error(t, err)
}

func TestClaims_PrincipalDefaultsRole(t *testing.T) {
	id := primitive.NewObjectID()
	p, err := (&Claims{UserID: id.Hex()}).Principal()
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role)

	_, err = (&Claims{UserID: "nope"}).Principal()
	assert.Error(t, err)
}
