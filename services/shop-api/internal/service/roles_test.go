package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

func TestChangeRole_ListsMissingDocuments(t *testing.T) {
	cases := []struct {
		have []string
		want []string
	}{
		{nil, []string{"DNI", "CUENTA", "DOMICILIO"}},
		{[]string{"DNI"}, []string{"CUENTA", "DOMICILIO"}},
		{[]string{"CUENTA", "DOMICILIO"}, []string{"DNI"}},
		{[]string{"DNI", "PROFILE", "DOMICILIO"}, []string{"CUENTA"}},
	}
	for _, tc := range cases {
		m := seedStore(t)
		u := mustUser(t, m, userID)
		for _, k := range tc.have {
			u.Documents = append(u.Documents, models.Document{Kind: k, Name: k, Reference: "s3://docs/" + k + "/f"})
		}
		m.PutUser(u)

		_, err := newUsers(m).ChangeRole(context.Background(), userID, models.RolePremium)
		ae := requireAppErr(t, err, http.StatusBadRequest, apperr.CodeDocumentsMissing)
		assert.Equal(t, tc.want, ae.Meta["missing_documents"], "have %v", tc.have)
		assert.Equal(t, models.RoleUser, mustUser(t, m, userID).Role)
	}
}

func TestChangeRole_Toggle(t *testing.T) {
	m := seedStore(t)
	u := mustUser(t, m, userID)
	for _, k := range models.RequiredPremiumDocuments {
		u.Documents = append(u.Documents, models.Document{Kind: k, Name: k, Reference: "s3://docs/" + k + "/f"})
	}
	m.PutUser(u)
	svc := newUsers(m)
	ctx := context.Background()

	got, err := svc.ChangeRole(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, got.Role)

	role, err := svc.GetRole(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, role)

	got, err = svc.ChangeRole(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Len(t, mustUser(t, m, userID).Documents, 3)
}

func TestChangeRole_DemotionNeedsNoDocuments(t *testing.T) {
	m := seedStore(t)
	u := mustUser(t, m, userID)
	u.Role = models.RolePremium
	m.PutUser(u)

	got, err := newUsers(m).ChangeRole(context.Background(), userID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestChangeRole_BadInput(t *testing.T) {
	m := seedStore(t)
	svc := newUsers(m)
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, userID, "admin")
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeValidation)

	_, err = svc.ChangeRole(ctx, missing, "")
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeUserNotFound)

	_, err = svc.GetRole(ctx, "x")
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeInvalidID)
}
