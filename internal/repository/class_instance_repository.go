package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

const classInstanceColumns = `ci.id, ci.name, ci.class_type_id, ct.name AS class_type_name, ci.date, ci.start_time, ci.end_time,
        ci.capacity, ci.teacher_id, ci.teacher_name, ci.teachers, ci.enrolled_users, ci.waitlist,
        ci.enrollment_mode, ci.weekday, ci.status`

const classInstanceFrom = `FROM class_instances ci LEFT JOIN class_types ct ON ct.id = ci.class_type_id`

type classInstanceRow struct {
	ID             string             `db:"id"`
	Name           sql.NullString     `db:"name"`
	ClassTypeID    sql.NullString     `db:"class_type_id"`
	ClassTypeName  sql.NullString     `db:"class_type_name"`
	Date           time.Time          `db:"date"`
	StartTime      string             `db:"start_time"`
	EndTime        string             `db:"end_time"`
	Capacity       int                `db:"capacity"`
	TeacherID      sql.NullString     `db:"teacher_id"`
	TeacherName    sql.NullString     `db:"teacher_name"`
	Teachers       types.NullJSONText `db:"teachers"`
	EnrolledUsers  pq.StringArray     `db:"enrolled_users"`
	Waitlist       pq.StringArray     `db:"waitlist"`
	EnrollmentMode string             `db:"enrollment_mode"`
	Weekday        sql.NullInt64      `db:"weekday"`
	Status         string             `db:"status"`
}

func (r classInstanceRow) toRaw() (models.RawClassInstance, error) {
	raw := models.RawClassInstance{
		ID:             r.ID,
		Name:           r.Name.String,
		Date:           r.Date.Format(models.DateLayout),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Capacity:       r.Capacity,
		EnrolledUsers:  []string(r.EnrolledUsers),
		Waitlist:       []string(r.Waitlist),
		EnrollmentMode: r.EnrollmentMode,
		Status:         r.Status,
	}
	if r.ClassTypeID.Valid {
		raw.ClassType = &models.ClassType{ID: r.ClassTypeID.String, Name: r.ClassTypeName.String}
	}
	if r.TeacherID.Valid || r.TeacherName.Valid {
		raw.Teacher = &models.TeacherRef{ID: r.TeacherID.String, Name: r.TeacherName.String}
	}
	if r.Teachers.Valid && len(r.Teachers.JSONText) > 0 {
		if err := r.Teachers.Unmarshal(&raw.Teachers); err != nil {
			return models.RawClassInstance{}, fmt.Errorf("decode teachers of %s: %w", r.ID, err)
		}
	}
	if r.Weekday.Valid {
		wd := int(r.Weekday.Int64)
		raw.Weekday = &wd
	}
	return raw, nil
}

// extensionTemplate is the latest active instance of one weekday stream plus
// the last date scheduled on that weekday in any status.
type extensionTemplate struct {
	classInstanceRow
	LastDate time.Time `db:"last_date"`
}

// ClassInstanceRepository stores class instances in Postgres and applies
// bulk plans and enrollment actions against them.
type ClassInstanceRepository struct {
	db *sqlx.DB
}

// NewClassInstanceRepository constructs the repository.
func NewClassInstanceRepository(db *sqlx.DB) *ClassInstanceRepository {
	return &ClassInstanceRepository{db: db}
}

// FetchInstances returns the raw records dated inside window.
func (r *ClassInstanceRepository) FetchInstances(ctx context.Context, window models.Window) ([]models.RawClassInstance, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE ci.date BETWEEN $1 AND $2 ORDER BY ci.date, ci.start_time`, classInstanceColumns, classInstanceFrom)
	var rows []classInstanceRow
	if err := r.db.SelectContext(ctx, &rows, query, window.From, window.To); err != nil {
		return nil, fmt.Errorf("fetch class instances: %w", err)
	}
	out := make([]models.RawClassInstance, 0, len(rows))
	for _, row := range rows {
		raw, err := row.toRaw()
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// MutateInstances applies plan in a single transaction.
func (r *ClassInstanceRepository) MutateInstances(ctx context.Context, plan models.BulkPlan) (*models.MutationResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk %s: %w", plan.Kind, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var result *models.MutationResult
	switch plan.Kind {
	case models.BulkEdit:
		result, err = r.applyEdit(ctx, tx, plan)
	case models.BulkExtend:
		result, err = r.applyExtend(ctx, tx, plan)
	case models.BulkDelete:
		result, err = r.applyDelete(ctx, tx, plan)
	case models.BulkCancelDay:
		result, err = r.applyDayStatus(ctx, tx, plan, models.InstanceStatusCancelled)
	case models.BulkReactivateDay:
		result, err = r.applyDayStatus(ctx, tx, plan, models.InstanceStatusActive)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported bulk kind %q", plan.Kind))
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk %s: %w", plan.Kind, err)
	}
	return result, nil
}

// seriesWhere renders the filter identifying one series. Series are made
// of fixed-mode instances only.
func seriesWhere(filter models.BulkFilter, startTime string, args []interface{}) (string, []interface{}) {
	conditions := []string{"enrollment_mode = 'fixed'"}
	conditions = append(conditions, fmt.Sprintf("name = $%d", len(args)+1))
	args = append(args, filter.Name)
	conditions = append(conditions, fmt.Sprintf("class_type_id = $%d", len(args)+1))
	args = append(args, filter.ClassTypeID)
	conditions = append(conditions, fmt.Sprintf("start_time = $%d", len(args)+1))
	args = append(args, startTime)
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	return strings.Join(conditions, " AND "), args
}

func (r *ClassInstanceRepository) applyEdit(ctx context.Context, tx *sqlx.Tx, plan models.BulkPlan) (*models.MutationResult, error) {
	if plan.Filter.DateFrom == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "edit requires a lower date bound")
	}
	payload := plan.Payload
	result := &models.MutationResult{}
	affected := newUserSet()

	var sets []string
	var args []interface{}
	if payload.StartTime != nil {
		sets = append(sets, fmt.Sprintf("start_time = $%d", len(args)+1))
		args = append(args, *payload.StartTime)
	}
	if payload.EndTime != nil {
		sets = append(sets, fmt.Sprintf("end_time = $%d", len(args)+1))
		args = append(args, *payload.EndTime)
	}
	if payload.Capacity != nil {
		sets = append(sets, fmt.Sprintf("capacity = $%d", len(args)+1))
		args = append(args, *payload.Capacity)
	}
	if payload.Teachers != nil {
		encoded, err := json.Marshal(payload.Teachers)
		if err != nil {
			return nil, fmt.Errorf("encode teachers: %w", err)
		}
		sets = append(sets, fmt.Sprintf("teachers = $%d", len(args)+1), "teacher_id = NULL", "teacher_name = NULL")
		args = append(args, types.JSONText(encoded))
	}

	if len(sets) > 0 {
		where, whereArgs := seriesWhere(plan.Filter, plan.Filter.StartTime, args)
		query := fmt.Sprintf(`UPDATE class_instances SET %s WHERE %s RETURNING enrolled_users, waitlist`, strings.Join(sets, ", "), where)
		matched, err := collectUsers(ctx, tx, affected, query, whereArgs...)
		if err != nil {
			return nil, fmt.Errorf("update series instances: %w", err)
		}
		result.Matched = matched
	}

	// Rows updated above now carry the new start time.
	startTime := plan.Filter.StartTime
	if payload.StartTime != nil {
		startTime = *payload.StartTime
	}

	if len(payload.Weekdays) > 0 {
		where, args := seriesWhere(plan.Filter, startTime, nil)
		query := fmt.Sprintf(`DELETE FROM class_instances WHERE %s AND NOT (EXTRACT(DOW FROM date)::int = ANY($%d::int[])) RETURNING enrolled_users, waitlist`, where, len(args)+1)
		args = append(args, pq.Array(weekdayInts(payload.Weekdays)))
		removed, err := collectUsers(ctx, tx, affected, query, args...)
		if err != nil {
			return nil, fmt.Errorf("drop series weekdays: %w", err)
		}
		if result.Matched < removed {
			result.Matched = removed
		}

		created, err := r.materializeWeekdays(ctx, tx, plan.Filter, startTime, payload.Weekdays)
		if err != nil {
			return nil, err
		}
		result.Created = created
	}

	result.AffectedUserIDs = affected.list()
	return result, nil
}

// materializeWeekdays creates instances for weekdays the series did not run
// on yet, from the lower bound to the series' last scheduled date.
func (r *ClassInstanceRepository) materializeWeekdays(ctx context.Context, tx *sqlx.Tx, filter models.BulkFilter, startTime string, weekdays []time.Weekday) (int, error) {
	where, args := seriesWhere(filter, startTime, nil)
	query := fmt.Sprintf(`SELECT id, name, class_type_id, NULL AS class_type_name, date, start_time, end_time, capacity, teacher_id, teacher_name,
        teachers, enrolled_users, waitlist, enrollment_mode, weekday, status FROM class_instances WHERE %s ORDER BY date DESC`, where)
	var rows []classInstanceRow
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return 0, fmt.Errorf("load series instances: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	template := rows[0]
	existing := make(map[time.Weekday]struct{}, len(rows))
	for _, row := range rows {
		existing[row.Date.Weekday()] = struct{}{}
	}

	created := 0
	for _, wd := range weekdays {
		if _, ok := existing[wd]; ok {
			continue
		}
		for day := nextWeekday(*filter.DateFrom, wd); !day.After(template.Date); day = day.AddDate(0, 0, 7) {
			if err := insertCopy(ctx, tx, template, day, nil); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (r *ClassInstanceRepository) applyExtend(ctx context.Context, tx *sqlx.Tx, plan models.BulkPlan) (*models.MutationResult, error) {
	if plan.Payload.NewEndDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "extend requires a new end date")
	}
	filter := plan.Filter
	filter.DateFrom = nil
	where, args := seriesWhere(filter, filter.StartTime, nil)
	// last_date spans every status so a cancelled tail is never re-created.
	query := fmt.Sprintf(`SELECT DISTINCT ON (EXTRACT(DOW FROM date)) id, name, class_type_id, NULL AS class_type_name, date, start_time,
        end_time, capacity, teacher_id, teacher_name, teachers, enrolled_users, waitlist, enrollment_mode, weekday, status, last_date
        FROM (
            SELECT *, MAX(date) OVER (PARTITION BY EXTRACT(DOW FROM date)) AS last_date
            FROM class_instances WHERE %s AND EXTRACT(DOW FROM date)::int = ANY($%d::int[])
        ) series
        WHERE status = 'active'
        ORDER BY EXTRACT(DOW FROM date), date DESC`, where, len(args)+1)
	args = append(args, pq.Array(weekdayInts(filter.Weekdays)))

	var templates []extensionTemplate
	if err := tx.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("load extension templates: %w", err)
	}

	end := *plan.Payload.NewEndDate
	affected := newUserSet()
	result := &models.MutationResult{Matched: len(templates)}
	for _, tpl := range templates {
		for day := tpl.LastDate.AddDate(0, 0, 7); !day.After(end); day = day.AddDate(0, 0, 7) {
			// Fixed enrollment carries the roster forward.
			if err := insertCopy(ctx, tx, tpl.classInstanceRow, day, tpl.EnrolledUsers); err != nil {
				return nil, err
			}
			result.Created++
			affected.add(tpl.EnrolledUsers...)
		}
	}
	result.AffectedUserIDs = affected.list()
	return result, nil
}

func (r *ClassInstanceRepository) applyDelete(ctx context.Context, tx *sqlx.Tx, plan models.BulkPlan) (*models.MutationResult, error) {
	if plan.Filter.DateFrom == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "delete requires a lower date bound")
	}
	where, args := seriesWhere(plan.Filter, plan.Filter.StartTime, nil)
	affected := newUserSet()
	matched, err := collectUsers(ctx, tx, affected, fmt.Sprintf(`DELETE FROM class_instances WHERE %s RETURNING enrolled_users, waitlist`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("delete series instances: %w", err)
	}
	return &models.MutationResult{Matched: matched, AffectedUserIDs: affected.list()}, nil
}

func (r *ClassInstanceRepository) applyDayStatus(ctx context.Context, tx *sqlx.Tx, plan models.BulkPlan, status models.InstanceStatus) (*models.MutationResult, error) {
	if plan.Filter.Date == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day mutation requires a date")
	}
	refund := false
	if status == models.InstanceStatusCancelled && plan.Payload.RefundCredits != nil {
		refund = *plan.Payload.RefundCredits
	}
	const query = `UPDATE class_instances SET status = $1, credits_refunded = $2 WHERE date = $3 AND status <> $1 RETURNING enrolled_users, waitlist`
	affected := newUserSet()
	matched, err := collectUsers(ctx, tx, affected, query, string(status), refund, *plan.Filter.Date)
	if err != nil {
		return nil, fmt.Errorf("set day status %s: %w", status, err)
	}
	return &models.MutationResult{Matched: matched, AffectedUserIDs: affected.list()}, nil
}

// Enroll appends userID to the roster while seats remain.
func (r *ClassInstanceRepository) Enroll(ctx context.Context, instanceID, userID string) (*models.MutationResult, error) {
	const query = `UPDATE class_instances SET enrolled_users = array_append(enrolled_users, $2), waitlist = array_remove(waitlist, $2)
        WHERE id = $1 AND status = 'active' AND NOT ($2 = ANY(enrolled_users)) AND cardinality(enrolled_users) < capacity`
	return r.rosterUpdate(ctx, query, instanceID, userID, "class is full or already joined")
}

// Unenroll removes userID from the roster.
func (r *ClassInstanceRepository) Unenroll(ctx context.Context, instanceID, userID string) (*models.MutationResult, error) {
	const query = `UPDATE class_instances SET enrolled_users = array_remove(enrolled_users, $2)
        WHERE id = $1 AND $2 = ANY(enrolled_users)`
	return r.rosterUpdate(ctx, query, instanceID, userID, "not enrolled in class")
}

// JoinWaitlist queues userID behind the roster.
func (r *ClassInstanceRepository) JoinWaitlist(ctx context.Context, instanceID, userID string) (*models.MutationResult, error) {
	const query = `UPDATE class_instances SET waitlist = array_append(waitlist, $2)
        WHERE id = $1 AND status = 'active' AND NOT ($2 = ANY(waitlist)) AND NOT ($2 = ANY(enrolled_users))`
	return r.rosterUpdate(ctx, query, instanceID, userID, "already waiting or enrolled")
}

// LeaveWaitlist removes userID from the waitlist.
func (r *ClassInstanceRepository) LeaveWaitlist(ctx context.Context, instanceID, userID string) (*models.MutationResult, error) {
	const query = `UPDATE class_instances SET waitlist = array_remove(waitlist, $2)
        WHERE id = $1 AND $2 = ANY(waitlist)`
	return r.rosterUpdate(ctx, query, instanceID, userID, "not on the waitlist")
}

func (r *ClassInstanceRepository) rosterUpdate(ctx context.Context, query, instanceID, userID, conflict string) (*models.MutationResult, error) {
	res, err := r.db.ExecContext(ctx, query, instanceID, userID)
	if err != nil {
		return nil, fmt.Errorf("update roster of %s: %w", instanceID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("roster rows affected: %w", err)
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, conflict)
	}
	return &models.MutationResult{Matched: int(affected), AffectedUserIDs: []string{userID}}, nil
}

func insertCopy(ctx context.Context, tx *sqlx.Tx, tpl classInstanceRow, day time.Time, enrolled []string) error {
	const query = `INSERT INTO class_instances (id, name, class_type_id, date, start_time, end_time, capacity, teacher_id, teacher_name,
        teachers, enrolled_users, waitlist, enrollment_mode, weekday, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if enrolled == nil {
		enrolled = []string{}
	}
	_, err := tx.ExecContext(ctx, query,
		uuid.NewString(), tpl.Name, tpl.ClassTypeID, day, tpl.StartTime, tpl.EndTime, tpl.Capacity,
		tpl.TeacherID, tpl.TeacherName, tpl.Teachers, pq.StringArray(enrolled), pq.StringArray{},
		string(models.EnrollmentModeFixed), int(day.Weekday()), string(models.InstanceStatusActive),
	)
	if err != nil {
		return fmt.Errorf("insert class instance on %s: %w", day.Format(models.DateLayout), err)
	}
	return nil
}

func collectUsers(ctx context.Context, tx *sqlx.Tx, set *userSet, query string, args ...interface{}) (int, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var enrolled, waitlist pq.StringArray
		if err := rows.Scan(&enrolled, &waitlist); err != nil {
			return n, err
		}
		set.add(enrolled...)
		set.add(waitlist...)
		n++
	}
	return n, rows.Err()
}

func nextWeekday(from time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

func weekdayInts(days []time.Weekday) []int64 {
	out := make([]int64, 0, len(days))
	for _, d := range days {
		out = append(out, int64(d))
	}
	return out
}

type userSet struct {
	seen map[string]struct{}
}

func newUserSet() *userSet {
	return &userSet{seen: make(map[string]struct{})}
}

func (s *userSet) add(ids ...string) {
	for _, id := range ids {
		if id != "" {
			s.seen[id] = struct{}{}
		}
	}
}

func (s *userSet) list() []string {
	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
