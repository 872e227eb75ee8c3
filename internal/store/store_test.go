package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

var (
	studentColumns = []string{"id", "name", "email", "phone", "created_at", "updated_at"}
	roomColumns    = []string{"id", "room_number", "floor", "capacity", "occupancy", "created_at", "updated_at"}
)

func expectStudent(mock sqlmock.Sqlmock, id int64) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "students" WHERE "students"."id" = $1`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(id, "Jane Doe", "jane@example.com", "", now, now))
}

func expectRoom(mock sqlmock.Sqlmock, id int64, capacity, occupancy int) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms" WHERE "rooms"."id" = $1`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows(roomColumns).AddRow(id, "101", 1, capacity, occupancy, now, now))
}

func expectAllocationCount(mock sqlmock.Sqlmock, studentID int64, count int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "allocations" WHERE student_id = $1`)).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

const occupancyCAS = `UPDATE "rooms" SET "occupancy"=occupancy + $1,"updated_at"=$2 WHERE id = $3 AND occupancy < capacity`

func TestGormStore_CreateRoom(t *testing.T) {
	testCases := []struct {
		name             string
		input            RoomInput
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name:  "Inserts room with zero occupancy and inferred floor",
			input: RoomInput{RoomNumber: " 101 ", Capacity: 2},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "rooms"`)).
					WithArgs("101", 1, 2, 0, Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
				mock.ExpectCommit()
			},
		},
		{
			name:  "Duplicate room number is a conflict",
			input: RoomInput{RoomNumber: "101", Capacity: 2},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "rooms"`)).
					WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_rooms_room_number\""})
				mock.ExpectRollback()
			},
			expectedErr: ErrConflict,
		},
		{
			name:             "Missing capacity never reaches the database",
			input:            RoomInput{RoomNumber: "101"},
			mockExpectations: func(mock sqlmock.Sqlmock) {},
			expectedErr:      ErrValidation,
		},
		{
			name:             "Blank room number never reaches the database",
			input:            RoomInput{RoomNumber: "  ", Capacity: 1},
			mockExpectations: func(mock sqlmock.Sqlmock) {},
			expectedErr:      ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			room, err := store.CreateRoom(context.Background(), tc.input)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, room)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), room.ID)
				assert.Equal(t, 0, room.Occupancy)
				assert.Equal(t, 1, room.Floor)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_Allocate(t *testing.T) {
	testCases := []struct {
		name             string
		studentID        int64
		roomID           int64
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name:      "Room with a free bed is allocated in one transaction",
			studentID: 3,
			roomID:    5,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectStudent(mock, 3)
				expectRoom(mock, 5, 2, 1)
				expectAllocationCount(mock, 3, 0)
				mock.ExpectExec(regexp.QuoteMeta(occupancyCAS)).
					WithArgs(1, Any{}, 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "allocations"`)).
					WithArgs(3, 5, Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
				expectRoom(mock, 5, 2, 2)
				mock.ExpectCommit()
			},
		},
		{
			name:      "Full room fails before any write",
			studentID: 3,
			roomID:    5,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectStudent(mock, 3)
				expectRoom(mock, 5, 2, 2)
				expectAllocationCount(mock, 3, 0)
				mock.ExpectRollback()
			},
			expectedErr: ErrCapacityExceeded,
		},
		{
			name:      "Losing the compare-and-swap rolls back",
			studentID: 3,
			roomID:    5,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectStudent(mock, 3)
				expectRoom(mock, 5, 2, 1)
				expectAllocationCount(mock, 3, 0)
				mock.ExpectExec(regexp.QuoteMeta(occupancyCAS)).
					WithArgs(1, Any{}, 5).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedErr: ErrCapacityExceeded,
		},
		{
			name:      "Student already holding a room is rejected",
			studentID: 3,
			roomID:    5,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectStudent(mock, 3)
				expectRoom(mock, 5, 2, 0)
				expectAllocationCount(mock, 3, 1)
				mock.ExpectRollback()
			},
			expectedErr: ErrAlreadyAllocated,
		},
		{
			name:      "Unique violation on the ledger rolls back the increment",
			studentID: 3,
			roomID:    5,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectStudent(mock, 3)
				expectRoom(mock, 5, 2, 0)
				expectAllocationCount(mock, 3, 0)
				mock.ExpectExec(regexp.QuoteMeta(occupancyCAS)).
					WithArgs(1, Any{}, 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "allocations"`)).
					WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_allocations_student_id\""})
				mock.ExpectRollback()
			},
			expectedErr: ErrAlreadyAllocated,
		},
		{
			name:      "Unknown room is not found",
			studentID: 3,
			roomID:    99,
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectStudent(mock, 3)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms" WHERE "rooms"."id" = $1`)).
					WithArgs(99, 1).
					WillReturnRows(sqlmock.NewRows(roomColumns))
				mock.ExpectRollback()
			},
			expectedErr: ErrNotFound,
		},
		{
			name:             "Missing ids are a validation error",
			studentID:        0,
			roomID:           5,
			mockExpectations: func(mock sqlmock.Sqlmock) {},
			expectedErr:      ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			allocation, err := store.Allocate(context.Background(), tc.studentID, tc.roomID)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, allocation)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(11), allocation.ID)
				require.NotNil(t, allocation.Room)
				assert.Equal(t, 2, allocation.Room.Occupancy)
				require.NotNil(t, allocation.Student)
				assert.Equal(t, int64(3), allocation.Student.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

const (
	lockRooms       = `SELECT * FROM "rooms" ORDER BY id FOR UPDATE`
	countByRoom     = `SELECT room_id AS room_id, COUNT\(\*\) AS total FROM "allocations" GROUP BY`
	guardedRepair   = `UPDATE "rooms" SET "occupancy"=$1,"updated_at"=$2 WHERE id = $3 AND occupancy = $4`
	reconcileFailed = "occupancy reconciliation"
)

func roomRows(rooms ...[4]int) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows(roomColumns)
	for _, r := range rooms { // id, capacity, occupancy, floor
		rows.AddRow(r[0], fmt.Sprintf("%d", 100+r[0]), r[3], r[1], r[2], now, now)
	}
	return rows
}

func TestGormStore_ReconcileOccupancy(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expected         []OccupancyRepair
	}{
		{
			name: "Rooms are locked before the ledger is counted",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(lockRooms)).
					WillReturnRows(roomRows([4]int{5, 2, 2, 1}, [4]int{6, 2, 0, 1}))
				// An allocation committed before the lock is part of the count.
				mock.ExpectQuery(countByRoom).
					WillReturnRows(sqlmock.NewRows([]string{"room_id", "total"}).AddRow(5, 2))
				mock.ExpectCommit()
			},
		},
		{
			name: "Drift is repaired only if occupancy still holds the value read",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(lockRooms)).
					WillReturnRows(roomRows([4]int{5, 2, 2, 1}))
				mock.ExpectQuery(countByRoom).
					WillReturnRows(sqlmock.NewRows([]string{"room_id", "total"}).AddRow(5, 1))
				mock.ExpectExec(regexp.QuoteMeta(guardedRepair)).
					WithArgs(1, Any{}, 5, 2).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expected: []OccupancyRepair{{RoomID: 5, RoomNumber: "105", Recorded: 2, Actual: 1, Fixed: true}},
		},
		{
			name: "A lost guard leaves the room for the next run",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(lockRooms)).
					WillReturnRows(roomRows([4]int{5, 2, 2, 1}))
				mock.ExpectQuery(countByRoom).
					WillReturnRows(sqlmock.NewRows([]string{"room_id", "total"}).AddRow(5, 1))
				mock.ExpectExec(regexp.QuoteMeta(guardedRepair)).
					WithArgs(1, Any{}, 5, 2).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expected: []OccupancyRepair{{RoomID: 5, RoomNumber: "105", Recorded: 2, Actual: 1, Fixed: false}},
		},
		{
			name: "Overbooked ledger is reported without a write",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(lockRooms)).
					WillReturnRows(roomRows([4]int{5, 2, 2, 1}))
				mock.ExpectQuery(countByRoom).
					WillReturnRows(sqlmock.NewRows([]string{"room_id", "total"}).AddRow(5, 3))
				mock.ExpectCommit()
			},
			expected: []OccupancyRepair{{RoomID: 5, RoomNumber: "105", Recorded: 2, Actual: 3, Fixed: false}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			repairs, err := store.ReconcileOccupancy(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, repairs)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_ReconcileOccupancy_LockFailureRollsBack(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRooms)).
		WillReturnError(fmt.Errorf("canceling statement due to lock timeout"))
	mock.ExpectRollback()

	_, err := store.ReconcileOccupancy(context.Background())
	assert.ErrorContains(t, err, reconcileFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyPercent(t *testing.T) {
	assert.Equal(t, 0, OccupancyPercent(0, 0))
	assert.Equal(t, 0, OccupancyPercent(5, 0))
	assert.Equal(t, 50, OccupancyPercent(1, 2))
	assert.Equal(t, 67, OccupancyPercent(2, 3))
	assert.Equal(t, 150, OccupancyPercent(3, 2))
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound, "room 1"), ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey, "room 1"), ErrConflict)
	assert.ErrorIs(t, translateError(gorm.ErrForeignKeyViolated, "allocation"), ErrNotFound)
	assert.ErrorIs(t, translateError(driver.ErrBadConn, "rooms"), ErrStoreUnavailable)
	assert.NoError(t, translateError(nil, "rooms"))
	assert.ErrorIs(t, ErrAlreadyAllocated, ErrConflict)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
