// Package memory is a process-local store used for demos, local runs and tests.
// It enforces the same per-staff overlap rule as the postgres exclusion
// constraint.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"booking-service/internal/models"
	"booking-service/internal/scheduling"
	"booking-service/pkg/response"
)

type Storage struct {
	mu sync.RWMutex

	tenants       map[string]models.Tenant
	staff         map[string]models.StaffMember
	shifts        []models.ShiftPattern
	exceptions    []models.ShiftException
	closedDays    []models.ClosedDay
	products      map[string]models.Product
	reservations  map[string]models.Reservation
	notifications []models.Notification

	now func() time.Time
}

func New() *Storage {
	return &Storage{
		tenants:      make(map[string]models.Tenant),
		staff:        make(map[string]models.StaffMember),
		products:     make(map[string]models.Product),
		reservations: make(map[string]models.Reservation),
		now:          time.Now,
	}
}

// #### seeding ####

func (s *Storage) AddTenant(t models.Tenant) models.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.tenants[t.ID] = t
	return t
}

func (s *Storage) AddStaff(m models.StaffMember) models.StaffMember {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.staff[m.ID] = m
	return m
}

// SetShift replaces the weekly row of a staff member for the given weekday.
func (s *Storage) SetShift(sh models.ShiftPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.shifts {
		if cur.StaffID == sh.StaffID && cur.Weekday == sh.Weekday {
			s.shifts[i] = sh
			return
		}
	}
	s.shifts = append(s.shifts, sh)
}

func (s *Storage) AddException(ex models.ShiftException) models.ShiftException {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	ex.Date = scheduling.DateOnly(ex.Date)
	s.exceptions = append(s.exceptions, ex)
	return ex
}

func (s *Storage) CloseWeekday(tenantID string, wd models.Weekday) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cd := range s.closedDays {
		if cd.TenantID == tenantID && cd.Weekday == wd {
			return
		}
	}
	s.closedDays = append(s.closedDays, models.ClosedDay{TenantID: tenantID, Weekday: wd})
}

func (s *Storage) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.products[p.ID] = p
	return p
}

// AddReservation stores a reservation as-is, without the overlap check. It is
// meant for seeding legacy data such as rows without an end time.
func (s *Storage) AddReservation(r models.Reservation) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = models.ReservationConfirmed
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	r.Date = scheduling.DateOnly(r.Date)
	s.reservations[r.ID] = r
	return r
}

func (s *Storage) Notifications(tenantID string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if n.TenantID == tenantID {
			out = append(out, n)
		}
	}
	return out
}

// #### tenants ####

func (s *Storage) GetTenantByAPIKey(_ context.Context, apiKey string) (*models.Tenant, error) {
	const op = "storage.memory.GetTenantByAPIKey"

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.APIKey == apiKey {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
}

// #### schedule ####

func (s *Storage) ListStaff(_ context.Context, tenantID string) ([]models.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.StaffMember
	for _, m := range s.staff {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})

	return out, nil
}

func (s *Storage) ListShifts(_ context.Context, tenantID string, weekday models.Weekday) ([]models.ShiftPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ShiftPattern
	for _, sh := range s.shifts {
		if sh.Weekday == weekday && s.staff[sh.StaffID].TenantID == tenantID {
			out = append(out, sh)
		}
	}

	return out, nil
}

func (s *Storage) ListExceptions(_ context.Context, tenantID string, date time.Time) ([]models.ShiftException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	date = scheduling.DateOnly(date)

	var out []models.ShiftException
	for _, ex := range s.exceptions {
		if ex.Date.Equal(date) && s.staff[ex.StaffID].TenantID == tenantID {
			out = append(out, ex)
		}
	}

	return out, nil
}

func (s *Storage) ListClosedDays(_ context.Context, tenantID string) ([]models.ClosedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ClosedDay
	for _, cd := range s.closedDays {
		if cd.TenantID == tenantID {
			out = append(out, cd)
		}
	}

	return out, nil
}

// #### products ####

func (s *Storage) FindProduct(_ context.Context, tenantID, idOrName string) (*models.Product, error) {
	const op = "storage.memory.FindProduct"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[idOrName]; ok && p.TenantID == tenantID {
		return &p, nil
	}
	for _, p := range s.products {
		if p.TenantID == tenantID && strings.EqualFold(p.Name, strings.TrimSpace(idOrName)) {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
}

// #### reservations ####

func (s *Storage) ListReservations(_ context.Context, tenantID string, date time.Time, staffID *string) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	date = scheduling.DateOnly(date)

	var out []models.Reservation
	for _, r := range s.reservations {
		if r.TenantID != tenantID || !r.Date.Equal(date) || !r.Status.Occupies() {
			continue
		}
		if staffID != nil && (r.StaffID == nil || *r.StaffID != *staffID) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})

	return out, nil
}

func (s *Storage) GetReservation(_ context.Context, tenantID, id string) (*models.Reservation, error) {
	const op = "storage.memory.GetReservation"

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok || r.TenantID != tenantID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return &r, nil
}

func (s *Storage) CreateReservation(_ context.Context, r *models.Reservation) (string, error) {
	const op = "storage.memory.CreateReservation"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOverlap(*r); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	r.ID = uuid.NewString()
	r.Date = scheduling.DateOnly(r.Date)
	r.CreatedAt = s.now().UTC()
	s.reservations[r.ID] = *r

	return r.ID, nil
}

func (s *Storage) UpdateReservationStatus(_ context.Context, tenantID, id string, status models.ReservationStatus) error {
	const op = "storage.memory.UpdateReservationStatus"

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok || r.TenantID != tenantID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	if r.Status != status && !r.Status.CanTransitionTo(status) {
		return fmt.Errorf("%s: %s -> %s: %w", op, r.Status, status, response.ErrInvalidTransition)
	}

	r.Status = status
	s.reservations[id] = r

	return nil
}

// checkOverlap mirrors the exclusion constraint: rows with a staff member may
// not overlap another active row of the same staff member on the same date.
func (s *Storage) checkOverlap(r models.Reservation) error {
	if r.StaffID == nil || !r.Status.Occupies() {
		return nil
	}

	var same []models.Reservation
	for _, cur := range s.reservations {
		if cur.TenantID != r.TenantID || cur.StaffID == nil || *cur.StaffID != *r.StaffID {
			continue
		}
		if cur.Date.Equal(scheduling.DateOnly(r.Date)) {
			same = append(same, cur)
		}
	}

	occ, err := scheduling.IndexReservations(same, scheduling.DefaultDuration)
	if err != nil {
		return err
	}
	mine, err := scheduling.IndexReservations([]models.Reservation{r}, scheduling.DefaultDuration)
	if err != nil {
		return err
	}

	for _, o := range occ {
		if scheduling.Overlaps(mine[0].Start, mine[0].End, o.Start, o.End) {
			return response.ErrSlotOccupied
		}
	}

	return nil
}

// #### notifications ####

func (s *Storage) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	s.notifications = append(s.notifications, *n)

	return nil
}

// #### fixtures ####

type fixture struct {
	Tenants []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		APIKey   string `yaml:"api_key"`
		Inactive bool   `yaml:"inactive"`

		ClosedWeekdays []int `yaml:"closed_weekdays"`

		Staff []struct {
			ID        string `yaml:"id"`
			Name      string `yaml:"name"`
			Inactive  bool   `yaml:"inactive"`
			Color     string `yaml:"color"`
			SortOrder int    `yaml:"sort_order"`
			Shifts    []struct {
				Weekday int    `yaml:"weekday"`
				Start   string `yaml:"start"`
				End     string `yaml:"end"`
				Off     bool   `yaml:"off"`
			} `yaml:"shifts"`
			Exceptions []struct {
				Date   string `yaml:"date"`
				Start  string `yaml:"start"`
				End    string `yaml:"end"`
				Reason string `yaml:"reason"`
			} `yaml:"exceptions"`
		} `yaml:"staff"`

		Products []struct {
			ID       string `yaml:"id"`
			Name     string `yaml:"name"`
			Price    string `yaml:"price"`
			Duration int    `yaml:"duration"`
		} `yaml:"products"`
	} `yaml:"tenants"`
}

// LoadFixture seeds the store from a YAML file describing tenants, their
// staff with weekly shifts and exceptions, closed weekdays and products.
func (s *Storage) LoadFixture(path string) error {
	const op = "storage.memory.LoadFixture"

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}

	for _, ft := range f.Tenants {
		t := s.AddTenant(models.Tenant{ID: ft.ID, Name: ft.Name, APIKey: ft.APIKey, IsActive: !ft.Inactive})

		for _, wd := range ft.ClosedWeekdays {
			weekday, err := models.ParseWeekday(wd)
			if err != nil {
				return fmt.Errorf("%s: tenant %s: %w", op, t.Name, err)
			}
			s.CloseWeekday(t.ID, weekday)
		}

		for _, fs := range ft.Staff {
			m := s.AddStaff(models.StaffMember{
				ID:        fs.ID,
				TenantID:  t.ID,
				Name:      fs.Name,
				IsActive:  !fs.Inactive,
				Color:     fs.Color,
				SortOrder: fs.SortOrder,
			})

			for _, sh := range fs.Shifts {
				weekday, err := models.ParseWeekday(sh.Weekday)
				if err != nil {
					return fmt.Errorf("%s: staff %s: %w", op, m.Name, err)
				}
				s.SetShift(models.ShiftPattern{
					StaffID:   m.ID,
					Weekday:   weekday,
					StartTime: sh.Start,
					EndTime:   sh.End,
					IsWorking: !sh.Off,
				})
			}

			for _, ex := range fs.Exceptions {
				date, err := scheduling.ParseDate(ex.Date)
				if err != nil {
					return fmt.Errorf("%s: staff %s: %w", op, m.Name, err)
				}
				s.AddException(models.ShiftException{
					StaffID:   m.ID,
					Date:      date,
					StartTime: ex.Start,
					EndTime:   ex.End,
					Reason:    ex.Reason,
				})
			}
		}

		for _, fp := range ft.Products {
			price := decimal.Zero
			if fp.Price != "" {
				price, err = decimal.NewFromString(fp.Price)
				if err != nil {
					return fmt.Errorf("%s: product %s: %w", op, fp.Name, err)
				}
			}
			s.AddProduct(models.Product{
				ID:       fp.ID,
				TenantID: t.ID,
				Name:     fp.Name,
				Price:    price,
				Duration: fp.Duration,
			})
		}
	}

	return nil
}
