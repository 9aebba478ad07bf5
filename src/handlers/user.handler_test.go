package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"userapi/src/handlers"
	"userapi/src/middleware"
	"userapi/src/models"
	"userapi/src/store"
	"userapi/src/store/mocks"
)

func seedUsers(t *testing.T, s *store.UserStore, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := range n {
		id, err := s.Create(context.Background(), models.NewUser{
			Name:  fmt.Sprintf("User %02d", i),
			Email: fmt.Sprintf("user%02d@example.com", i),
			Age:   20 + i,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestListUsersEmpty(t *testing.T) {
	r, _ := newSQLiteRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, &models.Pagination{Total: 0, Limit: 20, Offset: 0, HasNext: false}, env.Pagination)
}

func TestListUsersPagination(t *testing.T) {
	r, s := newSQLiteRouter(t)
	ids := seedUsers(t, s, 25)

	tests := []struct {
		query   string
		want    models.Pagination
		firstID int64
		count   int
	}{
		{"", models.Pagination{Total: 25, Limit: 20, Offset: 0, HasNext: true}, ids[0], 20},
		{"?offset=20", models.Pagination{Total: 25, Limit: 20, Offset: 20, HasNext: false}, ids[20], 5},
		{"?limit=5&offset=5", models.Pagination{Total: 25, Limit: 5, Offset: 5, HasNext: true}, ids[5], 5},
		{"?limit=1000", models.Pagination{Total: 25, Limit: 100, Offset: 0, HasNext: false}, ids[0], 25},
		{"?limit=0", models.Pagination{Total: 25, Limit: 20, Offset: 0, HasNext: true}, ids[0], 20},
		{"?limit=-3", models.Pagination{Total: 25, Limit: 20, Offset: 0, HasNext: true}, ids[0], 20},
		{"?limit=abc&offset=xyz", models.Pagination{Total: 25, Limit: 20, Offset: 0, HasNext: true}, ids[0], 20},
		{"?offset=-10", models.Pagination{Total: 25, Limit: 20, Offset: 0, HasNext: true}, ids[0], 20},
	}
	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, "/api/users"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			require.NotNil(t, env.Pagination)
			assert.Equal(t, tt.want, *env.Pagination)

			var users []models.User
			require.NoError(t, json.Unmarshal(env.Data, &users))
			require.Len(t, users, tt.count)
			assert.Equal(t, tt.firstID, users[0].ID)
			for i := 1; i < len(users); i++ {
				assert.Less(t, users[i-1].ID, users[i].ID)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	r, s := newSQLiteRouter(t)
	ids := seedUsers(t, s, 1)

	w, env := do(t, r, http.MethodGet, "/api/users/"+strconv.FormatInt(ids[0], 10), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var u models.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, ids[0], u.ID)
	assert.Equal(t, "user00@example.com", u.Email)
	assert.Contains(t, string(env.Data), `"createdAt"`)
	assert.Contains(t, string(env.Data), `"updatedAt"`)
}

func TestGetUserNotFound(t *testing.T) {
	r, _ := newSQLiteRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/users/999", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, &models.APIError{Code: models.CodeNotFound, Message: "User not found"}, env.Error)
	assert.Nil(t, env.Data)
}

func TestGetUserInvalidID(t *testing.T) {
	r, _ := newSQLiteRouter(t)

	for _, id := range []string{"abc", "0", "-1", "1.5", "12abc"} {
		t.Run(id, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, "/api/users/"+id, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, models.CodeBadRequest, env.Error.Code)
			assert.Equal(t, "Invalid user ID", env.Error.Message)
		})
	}
}

func TestCreateUser(t *testing.T) {
	r, _ := newSQLiteRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/users", `{"name":"  Alice  ","email":"a@b.co","age":30}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var created models.User
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Positive(t, created.ID)
	assert.Equal(t, "Alice", created.Name)
	assert.Equal(t, "a@b.co", created.Email)
	assert.Equal(t, 30, created.Age)
	assert.False(t, created.CreatedAt.IsZero())

	w, env = do(t, r, http.MethodGet, "/api/users/"+strconv.FormatInt(created.ID, 10), "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.User
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	r, s := newSQLiteRouter(t)

	w, _ := do(t, r, http.MethodPost, "/api/users", `{"name":"A","email":"a@b.co","age":1}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/users", `{"name":"B","email":"a@b.co","age":2}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, &models.APIError{Code: models.CodeBadRequest, Message: "Email address is already in use"}, env.Error)

	total, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCreateUserValidation(t *testing.T) {
	r, s := newSQLiteRouter(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"bad email", `{"name":"A","email":"not-an-email","age":30}`, "Invalid input: email: Email must be a valid email address"},
		{"age as string", `{"name":"A","email":"a@b.co","age":"20"}`, "Invalid input: age: Age must be an integer"},
		{"age out of range", `{"name":"A","email":"a@b.co","age":151}`, "Invalid input: age: Age must be between 0 and 150"},
		{"name too long", `{"name":"` + strings.Repeat("n", 101) + `","email":"a@b.co","age":1}`, "Invalid input: name: Name must be 100 characters or fewer"},
		{"empty object", `{}`, "Invalid input: name: Name is required, email: Email is required, age: Age is required"},
		{"empty body", ``, "Invalid input: name: Name is required, email: Email is required, age: Age is required"},
		{"null body", `null`, "Invalid input: name: Name is required, email: Email is required, age: Age is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/users", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, models.CodeValidation, env.Error.Code)
			assert.Equal(t, tt.message, env.Error.Message)
		})
	}

	total, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateUserMalformedBody(t *testing.T) {
	r, _ := newSQLiteRouter(t)

	for _, body := range []string{`{"name":`, `[1,2,3]`, `"text"`, `42`} {
		t.Run(body, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/users", body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, models.CodeBadRequest, env.Error.Code)
		})
	}
}

func TestCreateUserBodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	r := userRouter(handlers.NewUserHandler(repo, time.Second, discard), middleware.BodyLimit(32))

	body := `{"name":"` + strings.Repeat("n", 64) + `","email":"a@b.co","age":1}`
	w, env := do(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, &models.APIError{Code: models.CodeBadRequest, Message: "Request body is too large"}, env.Error)
}

var errBoom = errors.New("connection reset")

func newMockRouter(t *testing.T) (*mocks.MockUserRepository, http.Handler) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	return repo, userRouter(handlers.NewUserHandler(repo, time.Second, discard))
}

func TestListUsersDatabaseError(t *testing.T) {
	repo, r := newMockRouter(t)
	repo.EXPECT().Count(gomock.Any()).Return(int64(0), errBoom)
	repo.EXPECT().List(gomock.Any(), uint64(20), uint64(0)).Return(nil, nil).AnyTimes()

	w, env := do(t, r, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, models.CodeDatabase, env.Error.Code)
	assert.NotContains(t, env.Error.Message, errBoom.Error())
}

func TestListUsersNilPageRendersEmptyArray(t *testing.T) {
	repo, r := newMockRouter(t)
	repo.EXPECT().Count(gomock.Any()).Return(int64(0), nil)
	repo.EXPECT().List(gomock.Any(), uint64(20), uint64(0)).Return(nil, nil)

	w, env := do(t, r, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestListUsersOffsetPastEndHasNoNext(t *testing.T) {
	repo, r := newMockRouter(t)
	repo.EXPECT().Count(gomock.Any()).Return(int64(3), nil)
	repo.EXPECT().List(gomock.Any(), uint64(20), uint64(math.MaxInt64)).Return([]models.User{}, nil)

	w, env := do(t, r, http.MethodGet, "/api/users?offset="+strconv.FormatInt(math.MaxInt64, 10), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, &models.Pagination{Total: 3, Limit: 20, Offset: math.MaxInt64, HasNext: false}, env.Pagination)
}

func TestGetUserDatabaseError(t *testing.T) {
	repo, r := newMockRouter(t)
	repo.EXPECT().FindByID(gomock.Any(), int64(7)).Return(nil, errBoom)

	w, env := do(t, r, http.MethodGet, "/api/users/7", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, models.CodeDatabase, env.Error.Code)
}

func TestCreateUserRaceOnInsert(t *testing.T) {
	repo, r := newMockRouter(t)
	in := models.NewUser{Name: "A", Email: "a@b.co", Age: 1}
	gomock.InOrder(
		repo.EXPECT().FindByEmail(gomock.Any(), "a@b.co").Return(nil, store.ErrNotFound),
		repo.EXPECT().Create(gomock.Any(), in).Return(int64(0), store.ErrDuplicateEmail),
	)

	w, env := do(t, r, http.MethodPost, "/api/users", `{"name":"A","email":"a@b.co","age":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, &models.APIError{Code: models.CodeBadRequest, Message: "Email address is already in use"}, env.Error)
}

func TestCreateUserStorageFailures(t *testing.T) {
	in := models.NewUser{Name: "A", Email: "a@b.co", Age: 1}
	body := `{"name":"A","email":"a@b.co","age":1}`

	t.Run("lookup", func(t *testing.T) {
		repo, r := newMockRouter(t)
		repo.EXPECT().FindByEmail(gomock.Any(), "a@b.co").Return(nil, errBoom)

		w, env := do(t, r, http.MethodPost, "/api/users", body)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, models.CodeDatabase, env.Error.Code)
	})

	t.Run("insert", func(t *testing.T) {
		repo, r := newMockRouter(t)
		repo.EXPECT().FindByEmail(gomock.Any(), "a@b.co").Return(nil, store.ErrNotFound)
		repo.EXPECT().Create(gomock.Any(), in).Return(int64(0), errBoom)

		w, env := do(t, r, http.MethodPost, "/api/users", body)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, models.CodeDatabase, env.Error.Code)
	})

	t.Run("reload", func(t *testing.T) {
		repo, r := newMockRouter(t)
		repo.EXPECT().FindByEmail(gomock.Any(), "a@b.co").Return(nil, store.ErrNotFound)
		repo.EXPECT().Create(gomock.Any(), in).Return(int64(9), nil)
		repo.EXPECT().FindByID(gomock.Any(), int64(9)).Return(nil, errBoom)

		w, env := do(t, r, http.MethodPost, "/api/users", body)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, models.CodeDatabase, env.Error.Code)
	})
}

func TestCreateUserInvalidSkipsStorage(t *testing.T) {
	// The mock has no expectations, so any repository call fails the test.
	_, r := newMockRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/users", `{"name":"","email":"x","age":-1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeValidation, env.Error.Code)
}

func TestHandlerAppliesTimeout(t *testing.T) {
	repo, r := newMockRouter(t)
	repo.EXPECT().FindByID(gomock.Any(), int64(1)).DoAndReturn(func(ctx context.Context, _ int64) (*models.User, error) {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
		return &models.User{ID: 1, Name: "A", Email: "a@b.co", Age: 1}, nil
	})

	w, _ := do(t, r, http.MethodGet, "/api/users/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
