package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TWRT/taskboard/internal/models"
	"github.com/TWRT/taskboard/internal/repository"
)

// stubResolver resolves every reference, so enrichment tests don't need
// files on disk.
type stubResolver struct{}

func (stubResolver) Resolve(ref string) (string, bool) {
	return "https://files.test/" + ref, true
}

type fixture struct {
	tasks *TaskService
	users *UserService
	logs  *repository.LogRepository
	repo  *repository.TaskRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	logRepo := repository.NewLogRepository(db)

	return &fixture{
		tasks: NewTaskService(taskRepo, userRepo, logRepo, stubResolver{}),
		users: NewUserService(userRepo),
		logs:  logRepo,
		repo:  taskRepo,
	}
}

func (f *fixture) syncUser(t *testing.T, email string) {
	t.Helper()
	_, err := f.users.SyncUser(email, nil, nil)
	require.NoError(t, err)
}

func (f *fixture) createTask(t *testing.T, creator, assignee, content string) int64 {
	t.Helper()
	id, err := f.tasks.CreateTask(Session{Email: creator}, content, assignee, nil, nil)
	require.NoError(t, err)
	return id
}

func TestCreateTaskRequiresExistingCreator(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.CreateTask(Session{Email: "ghost@x.com"}, "ship v1", "b@x.com", nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTaskValidatesRequiredFields(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")

	_, err := f.tasks.CreateTask(Session{Email: "a@x.com"}, "  ", "b@x.com", nil, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.tasks.CreateTask(Session{Email: "a@x.com"}, "ship v1", "", nil, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateTaskAutoCreatesAssignee(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")

	taskID := f.createTask(t, "a@x.com", "new@x.com", "ship v1")

	// The assignee record now exists with just the email.
	assignee, err := f.users.GetByEmail("new@x.com")
	require.NoError(t, err)
	require.Nil(t, assignee.Name)

	detail, err := f.tasks.GetTask(taskID)
	require.NoError(t, err)
	require.NotNil(t, detail.AssigneeID)
	require.Equal(t, assignee.ID, *detail.AssigneeID)
	require.Equal(t, models.StatusPending, detail.Status)
}

func TestCreateTaskRejectsUnknownParent(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")

	missing := int64(999)
	_, err := f.tasks.CreateTask(Session{Email: "a@x.com"}, "sub", "b@x.com", &missing, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChangeStatusNoOpOnSameStatusWithoutComment(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.StatusPending, "", nil))

	entries, err := f.logs.ListByTask(taskID)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no-op must not append a log entry")
	require.Equal(t, models.ActionCreate, entries[0].Action)

	// With a comment it is no longer a no-op even at the same status.
	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.StatusPending, "ping", nil))
	entries, err = f.logs.ListByTask(taskID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.ActionUpdate, entries[0].Action)
}

func TestChangeStatusRoleGating(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	f.syncUser(t, "b@x.com")
	f.syncUser(t, "c@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	// completed/failed: assignee only.
	err := f.tasks.ChangeTaskStatus(Session{Email: "c@x.com"}, taskID, models.StatusCompleted, "", nil)
	require.ErrorIs(t, err, ErrForbidden)
	err = f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.StatusFailed, "", nil)
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "b@x.com"}, taskID, models.StatusCompleted, "", nil))

	// approved/rejected: creator only.
	err = f.tasks.ChangeTaskStatus(Session{Email: "b@x.com"}, taskID, models.StatusApproved, "", nil)
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.StatusApproved, "", nil))
}

func TestRejectedFoldsToPendingButLogsReject(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	f.syncUser(t, "b@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "b@x.com"}, taskID, models.StatusCompleted, "", nil))
	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.StatusRejected, "try again", nil))

	detail, err := f.tasks.GetTask(taskID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, detail.Status, "rejected must store as pending")
	require.Equal(t, "try again", detail.LastComment)

	entries, err := f.logs.ListByTask(taskID)
	require.NoError(t, err)
	require.Equal(t, models.ActionReject, entries[0].Action, "newest log must record the reject")
	require.Equal(t, "try again", entries[0].Comment)
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	err := f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.TaskStatus("archived"), "", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestChangeStatusUnknownTask(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")

	err := f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, 42, models.StatusCompleted, "", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEditTaskContentHistoryIsAppendOnly(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "draft one")

	versions := []string{"draft two", "draft three", "draft four"}
	for _, v := range versions {
		require.NoError(t, f.tasks.EditTaskContent(Session{Email: "a@x.com"}, taskID, v, nil))
	}

	detail, err := f.tasks.GetTask(taskID)
	require.NoError(t, err)
	require.Equal(t, "draft four", detail.Content)
	require.Len(t, detail.ContentEdits, len(versions))

	// Each history entry holds the content as it was before that edit.
	require.Equal(t, "draft one", detail.ContentEdits[0].Content)
	require.Equal(t, "draft two", detail.ContentEdits[1].Content)
	require.Equal(t, "draft three", detail.ContentEdits[2].Content)

	// Every edit also left an update log entry with the fixed comment.
	entries, err := f.logs.ListByTask(taskID)
	require.NoError(t, err)
	require.Len(t, entries, 1+len(versions))
	require.Equal(t, models.ActionUpdate, entries[0].Action)
	require.Equal(t, "Updated task details", entries[0].Comment)
}

func TestEditTaskContentCreatorOnly(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	f.syncUser(t, "b@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	err := f.tasks.EditTaskContent(Session{Email: "b@x.com"}, taskID, "hijacked", nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEditLogCommentAuthorOnly(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	f.syncUser(t, "b@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "b@x.com"}, taskID, models.StatusFailed, "blocked on X", nil))
	entries, err := f.logs.ListByTask(taskID)
	require.NoError(t, err)
	logID := entries[0].ID

	err = f.tasks.EditLogComment(Session{Email: "a@x.com"}, logID, "rewritten", nil)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.tasks.EditLogComment(Session{Email: "b@x.com"}, logID, "blocked on Y", nil))

	updated, err := f.logs.GetByID(logID)
	require.NoError(t, err)
	require.Equal(t, "blocked on Y", updated.Comment)
	require.Len(t, updated.Edits, 1)
	require.Equal(t, "blocked on X", updated.Edits[0].Comment)

	// The log's own history never touches the task content history.
	detail, err := f.tasks.GetTask(taskID)
	require.NoError(t, err)
	require.Empty(t, detail.ContentEdits)
}

func TestFilterAsymmetryBetweenViews(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	f.syncUser(t, "b@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")
	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "b@x.com"}, taskID, models.StatusCompleted, "", nil))

	assigned, err := f.tasks.ListAssigned("b@x.com", "completed", "")
	require.NoError(t, err)
	require.Len(t, assigned, 1, "completed task sits in the assignee's completed bucket")

	review, err := f.tasks.ListCreated("a@x.com", "review", "")
	require.NoError(t, err)
	require.Len(t, review, 1, "completed task awaits the creator in review")

	created, err := f.tasks.ListCreated("a@x.com", "completed", "")
	require.NoError(t, err)
	require.Empty(t, created, "for the creator, completed means approved only")
}

func TestListCreatedUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.ListCreated("ghost@x.com", "", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListAssignedSearchPath(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	f.createTask(t, "a@x.com", "b@x.com", "deploy the billing service")
	f.createTask(t, "a@x.com", "b@x.com", "write release notes")

	found, err := f.tasks.ListAssigned("b@x.com", "", "billing")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "deploy the billing service", found[0].Content)
}

func TestGetTaskEnrichment(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	taskID, err := f.tasks.CreateTask(Session{Email: "a@x.com"}, "ship v1", "b@x.com", nil, []string{"ref-1", "ref-2"})
	require.NoError(t, err)

	detail, err := f.tasks.GetTask(taskID)
	require.NoError(t, err)
	require.NotNil(t, detail.Creator)
	require.Equal(t, "a@x.com", detail.Creator.Email)
	require.NotNil(t, detail.Assignee)
	require.Equal(t, "b@x.com", detail.Assignee.Email)
	require.Equal(t, []string{"https://files.test/ref-1", "https://files.test/ref-2"}, detail.ImageURLs)
}

func TestGetTaskUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.GetTask(42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubtasks(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	parentID := f.createTask(t, "a@x.com", "b@x.com", "parent")

	subID, err := f.tasks.CreateTask(Session{Email: "a@x.com"}, "child", "b@x.com", &parentID, nil)
	require.NoError(t, err)

	subs, err := f.tasks.GetSubtasks(parentID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, subID, subs[0].ID)
}

func TestEndToEndRejectionFlow(t *testing.T) {
	f := newFixture(t)
	f.syncUser(t, "a@x.com")
	taskID := f.createTask(t, "a@x.com", "b@x.com", "ship v1")

	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "b@x.com"}, taskID, models.StatusFailed, "blocked on X", nil))
	require.NoError(t, f.tasks.ChangeTaskStatus(Session{Email: "a@x.com"}, taskID, models.StatusRejected, "try again", nil))

	detail, err := f.tasks.GetTask(taskID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, detail.Status)

	timeline, err := f.tasks.GetTimeline(taskID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	require.Equal(t, models.ActionReject, timeline[0].Action)
	require.Equal(t, "try again", timeline[0].Comment)
	require.Equal(t, models.ActionMarkFailed, timeline[1].Action)
	require.Equal(t, "blocked on X", timeline[1].Comment)
	require.Equal(t, models.ActionCreate, timeline[2].Action)
	require.NotNil(t, timeline[0].User)
	require.Equal(t, "a@x.com", timeline[0].User.Email)

	incomplete, err := f.tasks.ListAssigned("b@x.com", "incomplete", "")
	require.NoError(t, err)
	require.Len(t, incomplete, 1)

	review, err := f.tasks.ListCreated("a@x.com", "review", "")
	require.NoError(t, err)
	require.Empty(t, review, "a rejected task is back in pending, not review")
}
