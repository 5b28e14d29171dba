package datasource

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/console/pkg/tablestate"
)

func userField(u user, column string) (string, bool) {
	switch column {
	case "id":
		return u.ID, true
	case "userName":
		return u.UserName, true
	case "role":
		return u.Role, true
	case "status":
		return u.Status, true
	}
	return "", false
}

func fixtureUsers(n int) []user {
	users := make([]user, n)
	for i := range users {
		role, status := "staff", "active"
		if i%5 == 0 {
			role = "owner"
		}
		if i%2 == 1 {
			status = "inactive"
		}
		users[i] = user{
			ID:       fmt.Sprint(i + 1),
			UserName: fmt.Sprintf("user%03d", i+1),
			Role:     role,
			Status:   status,
		}
	}
	return users
}

func TestStaticPagination(t *testing.T) {
	src := NewStatic(fixtureUsers(95), userField, "userName")

	page, err := src.FetchPage(context.Background(), tablestate.TableState{PageIndex: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 95, page.Total)
	require.Len(t, page.Rows, 5)
	assert.Equal(t, "user091", page.Rows[0].UserName)

	page, err = src.FetchPage(context.Background(), tablestate.TableState{PageIndex: 20, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 95, page.Total)

	page, err = src.FetchPage(context.Background(), tablestate.TableState{PageIndex: 4611686018427387904, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 95, page.Total)
}

func TestStaticFiltersSearchAndSort(t *testing.T) {
	src := NewStatic(fixtureUsers(20), userField, "userName")

	page, err := src.FetchPage(context.Background(), tablestate.TableState{
		PageSize:   10,
		SortColumn: "userName",
		SortDir:    tablestate.Descending,
		Filters:    map[string]string{"role": "owner", "status": "all"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, "user016", page.Rows[0].UserName)

	page, err = src.FetchPage(context.Background(), tablestate.TableState{
		PageSize: 10,
		Search:   "USER01",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
}

func TestStaticHonoursCancelledContext(t *testing.T) {
	src := NewStatic(fixtureUsers(3), userField)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.FetchPage(ctx, tablestate.TableState{PageSize: 10})
	assert.True(t, IsCancelled(err))
}
