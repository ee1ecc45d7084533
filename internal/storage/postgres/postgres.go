package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"booking-service/internal/models"
	"booking-service/pkg/response"
)

// Postgres error codes the store translates into domain errors.
const (
	codeExclusionViolation = "23P01"
	codeInvalidText        = "22P02"
)

//go:embed schema.sql
var schema string

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Migrate creates the tables and the overlap exclusion constraint. It is safe
// to run on every start.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### tenants ####

func (s *Storage) GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	const op = "storage.postgres.GetTenantByAPIKey"

	var t models.Tenant

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, api_key, is_active FROM tenants WHERE api_key = $1`, apiKey,
	).Scan(&t.ID, &t.Name, &t.APIKey, &t.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

// #### schedule ####

func (s *Storage) ListStaff(ctx context.Context, tenantID string) ([]models.StaffMember, error) {
	const op = "storage.postgres.ListStaff"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, is_active, color, sort_order
		FROM staff
		WHERE tenant_id = $1
		ORDER BY sort_order, name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var staff []models.StaffMember
	for rows.Next() {
		var m models.StaffMember
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &m.IsActive, &m.Color, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		staff = append(staff, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return staff, nil
}

func (s *Storage) ListShifts(ctx context.Context, tenantID string, weekday models.Weekday) ([]models.ShiftPattern, error) {
	const op = "storage.postgres.ListShifts"

	rows, err := s.db.QueryContext(ctx, `
		SELECT sh.staff_id, sh.weekday,
		       COALESCE(to_char(sh.start_time, 'HH24:MI'), ''),
		       COALESCE(to_char(sh.end_time, 'HH24:MI'), ''),
		       sh.is_working
		FROM staff_shifts sh
		JOIN staff st ON st.id = sh.staff_id
		WHERE st.tenant_id = $1 AND sh.weekday = $2`, tenantID, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var shifts []models.ShiftPattern
	for rows.Next() {
		var sh models.ShiftPattern
		var wd int
		if err := rows.Scan(&sh.StaffID, &wd, &sh.StartTime, &sh.EndTime, &sh.IsWorking); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sh.Weekday = models.Weekday(wd)
		// A working row without times cannot be evaluated and counts as off.
		if sh.StartTime == "" || sh.EndTime == "" {
			sh.IsWorking = false
		}
		shifts = append(shifts, sh)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return shifts, nil
}

func (s *Storage) ListExceptions(ctx context.Context, tenantID string, date time.Time) ([]models.ShiftException, error) {
	const op = "storage.postgres.ListExceptions"

	rows, err := s.db.QueryContext(ctx, `
		SELECT ex.id, ex.staff_id, ex.date,
		       to_char(ex.start_time, 'HH24:MI'), to_char(ex.end_time, 'HH24:MI'), ex.reason
		FROM shift_exceptions ex
		JOIN staff st ON st.id = ex.staff_id
		WHERE st.tenant_id = $1 AND ex.date = $2`, tenantID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var exceptions []models.ShiftException
	for rows.Next() {
		var ex models.ShiftException
		if err := rows.Scan(&ex.ID, &ex.StaffID, &ex.Date, &ex.StartTime, &ex.EndTime, &ex.Reason); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		exceptions = append(exceptions, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return exceptions, nil
}

func (s *Storage) ListClosedDays(ctx context.Context, tenantID string) ([]models.ClosedDay, error) {
	const op = "storage.postgres.ListClosedDays"

	rows, err := s.db.QueryContext(ctx, `SELECT tenant_id, weekday FROM closed_days WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var days []models.ClosedDay
	for rows.Next() {
		var cd models.ClosedDay
		var wd int
		if err := rows.Scan(&cd.TenantID, &wd); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cd.Weekday = models.Weekday(wd)
		days = append(days, cd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return days, nil
}

// #### products ####

func (s *Storage) FindProduct(ctx context.Context, tenantID, idOrName string) (*models.Product, error) {
	const op = "storage.postgres.FindProduct"

	var p models.Product

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, price, duration_minutes
		FROM products
		WHERE tenant_id = $1 AND (id::text = $2 OR lower(name) = lower($2))
		ORDER BY (id::text = $2) DESC
		LIMIT 1`, tenantID, idOrName,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.Price, &p.Duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

// #### reservations ####

const reservationColumns = `
	id, tenant_id, customer_name, customer_email, customer_phone,
	reservation_date, to_char(reservation_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	party_size, status, staff_id, product_id, price_paid, notes, source, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r         models.Reservation
		endTime   sql.NullString
		staffID   sql.NullString
		productID sql.NullString
		price     decimal.NullDecimal
		status    string
	)

	err := row.Scan(
		&r.ID, &r.TenantID, &r.CustomerName, &r.CustomerEmail, &r.CustomerPhone,
		&r.Date, &r.StartTime, &endTime,
		&r.PartySize, &status, &staffID, &productID, &price, &r.Notes, &r.Source, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = models.ReservationStatus(status)
	if endTime.Valid {
		r.EndTime = &endTime.String
	}
	if staffID.Valid {
		r.StaffID = &staffID.String
	}
	if productID.Valid {
		r.ProductID = &productID.String
	}
	if price.Valid {
		r.PricePaid = &price.Decimal
	}

	return &r, nil
}

func (s *Storage) ListReservations(ctx context.Context, tenantID string, date time.Time, staffID *string) ([]models.Reservation, error) {
	const op = "storage.postgres.ListReservations"

	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE tenant_id = $1 AND reservation_date = $2 AND status <> 'cancelled'`
	args := []any{tenantID, date.Format("2006-01-02")}
	if staffID != nil {
		query += ` AND staff_id = $3`
		args = append(args, *staffID)
	}
	query += ` ORDER BY reservation_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Storage) GetReservation(ctx context.Context, tenantID, id string) (*models.Reservation, error) {
	const op = "storage.postgres.GetReservation"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE tenant_id = $1 AND id::text = $2`,
		tenantID, id,
	)

	r, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r, nil
}

// CreateReservation inserts the reservation. The exclusion constraint rejects
// an interval overlapping another active reservation of the same staff member
// even when two writers bypass the application lock.
func (s *Storage) CreateReservation(ctx context.Context, r *models.Reservation) (string, error) {
	const op = "storage.postgres.CreateReservation"

	var id string
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reservations (
			tenant_id, customer_name, customer_email, customer_phone,
			reservation_date, reservation_time, end_time, party_size, status,
			staff_id, product_id, price_paid, notes, source
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`,
		r.TenantID, r.CustomerName, r.CustomerEmail, r.CustomerPhone,
		r.Date.Format("2006-01-02"), r.StartTime, nullString(r.EndTime), r.PartySize, string(r.Status),
		nullString(r.StaffID), nullString(r.ProductID), nullDecimal(r.PricePaid), r.Notes, r.Source,
	).Scan(&id, &createdAt)
	if err != nil {
		return "", writeError(op, err)
	}

	r.ID = id
	r.CreatedAt = createdAt

	return id, nil
}

// UpdateReservationStatus locks the row so two concurrent transitions cannot
// both pass the lifecycle check.
func (s *Storage) UpdateReservationStatus(ctx context.Context, tenantID, id string, status models.ReservationStatus) error {
	const op = "storage.postgres.UpdateReservationStatus"

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM reservations WHERE tenant_id = $1 AND id::text = $2 FOR UPDATE`,
		tenantID, id,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := checkTransition(current, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = $3 WHERE tenant_id = $1 AND id::text = $2`,
		tenantID, id, string(status),
	)
	if err != nil {
		return writeError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// #### notifications ####

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	const op = "storage.postgres.CreateNotification"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, tenant_id, type, title, message, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.TenantID, n.Type, n.Title, n.Message, nullBytes(n.Payload), n.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeInvalidText {
			return fmt.Errorf("%s: %w: %w", op, response.ErrValidation, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// writeError maps an exclusion violation to ErrSlotOccupied.
func writeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeExclusionViolation {
		return fmt.Errorf("%s: %w", op, response.ErrSlotOccupied)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checkTransition allows re-applying the current status.
func checkTransition(current string, next models.ReservationStatus) error {
	if current == string(next) || models.ReservationStatus(current).CanTransitionTo(next) {
		return nil
	}
	return fmt.Errorf("%s -> %s: %w", current, next, response.ErrInvalidTransition)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
