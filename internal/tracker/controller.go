// Package tracker coordinates scan submission, credential lifecycle, and
// offline-queue draining against the tracking service.
//
// The controller guarantees that a submitted scan always ends up either
// confirmed by the server or durably queued: a transport failure (or any
// server rejection of the immediate attempt) parks the record in the
// offline queue and reports "offline" rather than surfacing a failure.
// Every successful login and every successful online submission triggers
// a drain pass to flush the backlog.
package tracker

import (
	"context"
	"log"
	"net/http"

	"github.com/ostap/trackbox/internal/api"
	"github.com/ostap/trackbox/internal/queue"
	"github.com/ostap/trackbox/internal/state"
	"github.com/ostap/trackbox/internal/stats"
	"github.com/ostap/trackbox/internal/tasks"
)

// ErrAuthRequired is returned before any network attempt when an
// authenticated operation is invoked without a stored credential.
var ErrAuthRequired = &api.Error{Status: http.StatusUnauthorized, Message: "authorization required"}

// Submission statuses. There is deliberately no "failed" status: a scan
// that could not be confirmed is queued, never lost.
const (
	StatusOK      = "ok"
	StatusOffline = "offline"
)

// Submission is the user-visible outcome of submitting one scan.
type Submission struct {
	Status  string
	Message string
}

// Controller owns the submission policy and the credential state.
type Controller struct {
	client api.Service
	state  *state.Store
	queue  *queue.Store
	runner *tasks.Runner

	// OnSynced, when set, receives the number of records a background
	// drain pass confirmed. Fired on the interactive loop.
	OnSynced func(count int)
}

// New builds a controller over the given collaborators.
func New(client api.Service, st *state.Store, q *queue.Store, runner *tasks.Runner) *Controller {
	return &Controller{client: client, state: st, queue: q, runner: runner}
}

// State returns the current credential/identity snapshot.
func (c *Controller) State() state.State {
	return c.state.Get()
}

// Role resolves the operator's role from the stored state.
func (c *Controller) Role() api.Role {
	st := c.state.Get()
	return api.RoleFromValue(st.UserRole, st.AccessLevel)
}

// PendingCount returns the number of records awaiting sync.
func (c *Controller) PendingCount() int {
	return c.queue.Len()
}

// Login exchanges credentials for a token, persists the identity, and
// kicks off a drain pass for any offline backlog.
func (c *Controller) Login(ctx context.Context, surname, password string) (*api.LoginReply, error) {
	reply, err := c.client.Login(ctx, surname, password)
	if err != nil {
		return nil, err
	}

	level := reply.AccessLevel.Int()
	name := reply.Surname
	if name == "" {
		name = surname
	}
	next := state.State{
		Token:       reply.Token,
		AccessLevel: level,
		UserName:    name,
		UserRole:    string(api.RoleFromValue(reply.Role, level)),
	}
	if err := c.state.Put(next); err != nil {
		return nil, err
	}

	c.SyncPending()
	return reply, nil
}

// Logout clears the credential but keeps the operator name for the next
// session.
func (c *Controller) Logout() error {
	return c.state.Update(func(s *state.State) {
		s.Token = ""
		s.AccessLevel = nil
		s.UserRole = string(api.RoleViewer)
	})
}

// Register submits a registration request.
func (c *Controller) Register(ctx context.Context, surname, password string) error {
	return c.client.Register(ctx, surname, password)
}

// SetUserName persists the operator display name.
func (c *Controller) SetUserName(name string) error {
	return c.state.Update(func(s *state.State) { s.UserName = name })
}

// SubmitRecord applies the submission policy for one new scan. Without a
// credential the record goes straight to the offline queue; with one, an
// immediate attempt is made and any failure falls back to the queue. A
// confirmed submission triggers a drain pass for older backlog.
func (c *Controller) SubmitRecord(ctx context.Context, boxID, ttn string) (Submission, error) {
	st := c.state.Get()
	record := api.ScanRecord{UserName: st.UserName, BoxID: boxID, TTN: ttn}

	if st.Token == "" {
		if err := c.queue.Append(record); err != nil {
			return Submission{}, err
		}
		return Submission{Status: StatusOffline, Message: "Saved locally. Sign in to sync."}, nil
	}

	reply, err := c.client.SubmitRecord(ctx, st.Token, record)
	if err != nil {
		if appendErr := c.queue.Append(record); appendErr != nil {
			return Submission{}, appendErr
		}
		return Submission{Status: StatusOffline, Message: "Saved locally (offline)."}, nil
	}

	c.SyncPending()
	message := "Added successfully"
	if reply.Note != "" {
		message = "Duplicate: " + reply.Note
	}
	return Submission{Status: StatusOK, Message: message}, nil
}

// SyncPending schedules a drain pass on the task runner. The synced
// count reaches OnSynced once the interactive loop dispatches it.
func (c *Controller) SyncPending() {
	st := c.state.Get()
	if st.Token == "" {
		return
	}
	c.runner.Submit(
		func(ctx context.Context) (any, error) {
			return c.queue.Drain(ctx, st.Token, c.client)
		},
		tasks.Hooks{
			OnSuccess: func(result any) {
				count, _ := result.(int)
				if count > 0 && c.OnSynced != nil {
					c.OnSynced(count)
				}
			},
			OnError: func(err error) {
				log.Printf("sync pass failed: %v", err)
			},
		},
	)
}

// FetchHistory retrieves the scan history, newest first.
func (c *Controller) FetchHistory(ctx context.Context) ([]api.TrackRecord, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	records, err := c.client.FetchHistory(ctx, token)
	if err != nil {
		return nil, err
	}
	stats.SortByTimeDesc(records)
	return records, nil
}

// FetchErrors retrieves the error log, newest first.
func (c *Controller) FetchErrors(ctx context.Context) ([]api.ErrorRecord, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	records, err := c.client.FetchErrors(ctx, token)
	if err != nil {
		return nil, err
	}
	stats.SortByTimeDesc(records)
	return records, nil
}

// FetchStatistics retrieves both raw streams for the statistics view.
func (c *Controller) FetchStatistics(ctx context.Context) ([]api.TrackRecord, []api.ErrorRecord, error) {
	token, err := c.token()
	if err != nil {
		return nil, nil, err
	}
	history, err := c.client.FetchHistory(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	errors, err := c.client.FetchErrors(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	stats.SortByTimeDesc(history)
	stats.SortByTimeDesc(errors)
	return history, errors, nil
}

// ClearHistory removes all tracked records server-side.
func (c *Controller) ClearHistory(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.client.ClearHistory(ctx, token)
}

// ClearErrors removes the whole error log server-side.
func (c *Controller) ClearErrors(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.client.ClearErrors(ctx, token)
}

// DeleteError removes one error log entry server-side.
func (c *Controller) DeleteError(ctx context.Context, id int64) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.client.DeleteError(ctx, token, id)
}

// AdminLogin exchanges the admin password for an admin token. Admin
// operations carry their own token, separate from the operator session.
func (c *Controller) AdminLogin(ctx context.Context, password string) (string, error) {
	return c.client.AdminLogin(ctx, password)
}

// PendingUsers lists registration requests awaiting review.
func (c *Controller) PendingUsers(ctx context.Context, adminToken string) ([]api.PendingUser, error) {
	return c.client.PendingUsers(ctx, adminToken)
}

// ApprovePending approves a registration request with the given role.
func (c *Controller) ApprovePending(ctx context.Context, adminToken string, id int64, role api.Role) error {
	return c.client.ApprovePending(ctx, adminToken, id, role)
}

// RejectPending rejects a registration request.
func (c *Controller) RejectPending(ctx context.Context, adminToken string, id int64) error {
	return c.client.RejectPending(ctx, adminToken, id)
}

// Users lists managed accounts.
func (c *Controller) Users(ctx context.Context, adminToken string) ([]api.ManagedUser, error) {
	return c.client.Users(ctx, adminToken)
}

// UpdateUser patches a managed account.
func (c *Controller) UpdateUser(ctx context.Context, adminToken string, id int64, patch api.UserPatch) (*api.ManagedUser, error) {
	return c.client.UpdateUser(ctx, adminToken, id, patch)
}

// DeleteUser removes a managed account.
func (c *Controller) DeleteUser(ctx context.Context, adminToken string, id int64) error {
	return c.client.DeleteUser(ctx, adminToken, id)
}

// RolePasswords retrieves the shared role passwords.
func (c *Controller) RolePasswords(ctx context.Context, adminToken string) (map[api.Role]string, error) {
	return c.client.RolePasswords(ctx, adminToken)
}

// SetRolePassword replaces a shared role password.
func (c *Controller) SetRolePassword(ctx context.Context, adminToken string, role api.Role, password string) error {
	return c.client.SetRolePassword(ctx, adminToken, role, password)
}

func (c *Controller) token() (string, error) {
	st := c.state.Get()
	if st.Token == "" {
		return "", ErrAuthRequired
	}
	return st.Token, nil
}
