package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vporoshok/taskping/internal/api/shared"
	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/service"
	"github.com/vporoshok/taskping/internal/store"
)

// fakeTaskService implements service.TaskService over an in-memory map,
// enforcing ownership the way the real service does.
type fakeTaskService struct {
	tasks  map[string]*domain.Task
	nextID int
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{tasks: make(map[string]*domain.Task)}
}

func (f *fakeTaskService) CreateTask(ctx context.Context, userID string, input service.CreateTaskInput) (*domain.Task, error) {
	f.nextID++
	task, err := domain.NewTask(
		"ABCT"+strconv.Itoa(f.nextID), userID, input.Title, input.Description, input.DueAt)
	if err != nil {
		return nil, err
	}
	task.CategoryIDs = input.CategoryIDs
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskService) GetTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if task.UserID != userID {
		return nil, service.ErrNotOwned
	}
	return task, nil
}

func (f *fakeTaskService) ListTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskService) UpdateTask(ctx context.Context, userID, taskID string, input service.UpdateTaskInput) (*domain.Task, error) {
	task, err := f.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.ClearDueAt {
		task.DueAt = nil
	}
	return task, nil
}

func (f *fakeTaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := f.GetTask(ctx, userID, taskID); err != nil {
		return err
	}
	delete(f.tasks, taskID)
	return nil
}

// taskRouter mounts the handler under the production route shape.
func taskRouter(h *TaskHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{taskID}", h.Get)
		r.Patch("/{taskID}", h.Update)
		r.Delete("/{taskID}", h.Delete)
	})
	return r
}

// asUser injects the acting user the way the auth middleware would.
func asUser(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

func doJSON(t *testing.T, router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req = asUser(req, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_Create(t *testing.T) {
	t.Parallel()

	router := taskRouter(NewTaskHandler(newFakeTaskService()))

	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	w := doJSON(t, router, http.MethodPost, "/api/tasks", "ABCU1", CreateTaskRequest{
		Title: "Pay rent",
		DueAt: &due,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Pay rent", resp.Title)
	assert.Equal(t, "active", resp.Status)
	require.NotNil(t, resp.DueAt)
	assert.True(t, resp.DueAt.Equal(due))
	assert.Nil(t, resp.DueNotifiedAt)
}

func TestTaskHandler_CreateRequiresAuth(t *testing.T) {
	t.Parallel()

	router := taskRouter(NewTaskHandler(newFakeTaskService()))

	w := doJSON(t, router, http.MethodPost, "/api/tasks", "", CreateTaskRequest{Title: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskHandler_CreateRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	router := taskRouter(NewTaskHandler(newFakeTaskService()))

	w := doJSON(t, router, http.MethodPost, "/api/tasks", "ABCU1", CreateTaskRequest{Title: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_GetNotFoundAndForbidden(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	router := taskRouter(NewTaskHandler(svc))

	created, err := svc.CreateTask(context.Background(), "ABCU1", service.CreateTaskInput{Title: "mine"})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/api/tasks/ABCTnope", "ABCU1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+created.ID, "ABCU2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+created.ID, "ABCU1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTaskHandler_List(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	router := taskRouter(NewTaskHandler(svc))

	_, err := svc.CreateTask(context.Background(), "ABCU1", service.CreateTaskInput{Title: "one"})
	require.NoError(t, err)
	_, err = svc.CreateTask(context.Background(), "ABCU2", service.CreateTaskInput{Title: "other"})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/api/tasks", "ABCU1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestTaskHandler_Update(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	router := taskRouter(NewTaskHandler(svc))

	created, err := svc.CreateTask(context.Background(), "ABCU1", service.CreateTaskInput{Title: "draft"})
	require.NoError(t, err)

	title := "final"
	status := "done"
	w := doJSON(t, router, http.MethodPatch, "/api/tasks/"+created.ID, "ABCU1", UpdateTaskRequest{
		Title:  &title,
		Status: &status,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "final", resp.Title)
	assert.Equal(t, "done", resp.Status)
}

func TestTaskHandler_UpdateRejectsBadStatus(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	router := taskRouter(NewTaskHandler(svc))

	created, err := svc.CreateTask(context.Background(), "ABCU1", service.CreateTaskInput{Title: "draft"})
	require.NoError(t, err)

	status := "archived"
	w := doJSON(t, router, http.MethodPatch, "/api/tasks/"+created.ID, "ABCU1", UpdateTaskRequest{Status: &status})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_Delete(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	router := taskRouter(NewTaskHandler(svc))

	created, err := svc.CreateTask(context.Background(), "ABCU1", service.CreateTaskInput{Title: "temp"})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodDelete, "/api/tasks/"+created.ID, "ABCU1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/tasks/"+created.ID, "ABCU1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
