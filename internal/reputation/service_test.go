package reputation

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/outbox"
)

// fakeRepository keeps everything in memory so threshold cascades can be
// exercised without a database.
type fakeRepository struct {
	records    map[uuid.UUID]*models.ReputationRecord
	events     []*models.ReputationEvent
	complaints map[uuid.UUID]*models.Complaint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		records:    map[uuid.UUID]*models.ReputationRecord{},
		complaints: map[uuid.UUID]*models.Complaint{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateRecordIfAbsent(ctx context.Context, record *models.ReputationRecord) (bool, error) {
	if _, ok := f.records[record.UserID]; ok {
		return false, nil
	}
	record.ID = uuid.New()
	f.records[record.UserID] = record
	return true, nil
}

func (f *fakeRepository) FindRecordByUser(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	record, ok := f.records[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeRepository) FindRecordByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	return f.FindRecordByUser(ctx, userID)
}

func (f *fakeRepository) SaveRecord(ctx context.Context, record *models.ReputationRecord) error {
	f.records[record.UserID] = record
	return nil
}

func (f *fakeRepository) CreateEvent(ctx context.Context, event *models.ReputationEvent) error {
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepository) ListEventsByUser(ctx context.Context, userID uuid.UUID) ([]models.ReputationEvent, error) {
	var out []models.ReputationEvent
	for _, event := range f.events {
		if event.UserID == userID {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	complaint.ID = uuid.New()
	complaint.CreatedAt = time.Now()
	f.complaints[complaint.ID] = complaint
	return nil
}

func (f *fakeRepository) FindComplaintByID(ctx context.Context, complaintID uuid.UUID) (*models.Complaint, error) {
	complaint, ok := f.complaints[complaintID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *complaint
	return &copied, nil
}

func (f *fakeRepository) SaveComplaint(ctx context.Context, complaint *models.Complaint) error {
	f.complaints[complaint.ID] = complaint
	return nil
}

func (f *fakeRepository) TransitionComplaint(ctx context.Context, complaintID uuid.UUID, from, to enums.ComplaintStatus) (bool, error) {
	complaint, ok := f.complaints[complaintID]
	if !ok || complaint.Status != from {
		return false, nil
	}
	complaint.Status = to
	return true, nil
}

func (f *fakeRepository) FindOldestOpenComplaint(ctx context.Context, subjectID uuid.UUID) (*models.Complaint, error) {
	var open []*models.Complaint
	for _, complaint := range f.complaints {
		if complaint.SubjectID == subjectID && complaint.Status == enums.ComplaintStatusOpen {
			open = append(open, complaint)
		}
	}
	if len(open) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })
	return open[0], nil
}

func (f *fakeRepository) ListComplaintsBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, complaint := range f.complaints {
		if complaint.SubjectID == subjectID {
			out = append(out, *complaint)
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateCompliment(ctx context.Context, compliment *models.Compliment) error {
	compliment.ID = uuid.New()
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

// lockingRepository honors the row-lock contract the way the real store
// does: a locked read or a fresh insert holds the record lock until the
// fold is written back, so concurrent folds for one user queue up.
type lockingRepository struct {
	*fakeRepository
	mu sync.Mutex
}

func (l *lockingRepository) WithTx(tx *gorm.DB) Repository { return l }

func (l *lockingRepository) FindRecordByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	l.mu.Lock()
	record, err := l.fakeRepository.FindRecordByUserForUpdate(ctx, userID)
	if err != nil {
		// Nothing to lock when the row does not exist.
		l.mu.Unlock()
	}
	return record, err
}

func (l *lockingRepository) CreateRecordIfAbsent(ctx context.Context, record *models.ReputationRecord) (bool, error) {
	l.mu.Lock()
	created, err := l.fakeRepository.CreateRecordIfAbsent(ctx, record)
	if err != nil || !created {
		// A concurrent insert won; the caller re-reads under the lock.
		l.mu.Unlock()
	}
	return created, err
}

func (l *lockingRepository) SaveRecord(ctx context.Context, record *models.ReputationRecord) error {
	err := l.fakeRepository.SaveRecord(ctx, record)
	l.mu.Unlock()
	return err
}

type fakeOutbox struct {
	emitted []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.emitted = append(f.emitted, event)
	return nil
}

func (f *fakeOutbox) has(eventType enums.OutboxEventType) bool {
	for _, event := range f.emitted {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUsers) add(role enums.UserRole) uuid.UUID {
	id := uuid.New()
	f.users[id] = &models.User{ID: id, Role: role, IsActive: true}
	return id
}

func testConfig() config.ReputationConfig {
	return config.ReputationConfig{
		VIPThreshold:         100,
		BlacklistThreshold:   -50,
		DemotionRating:       2.0,
		BonusRating:          4.0,
		ComplaintsToDemotion: 3,
		ComplimentsToBonus:   3,
		DemotionsToFire:      2,
		WarningsToDemoteVIP:  2,
		WarningsToDeregister: 3,
		VIPWeight:            2,
	}
}

func newTestEngine(t *testing.T) (Service, *fakeRepository, *fakeOutbox, *fakeUsers) {
	t.Helper()
	repo := newFakeRepository()
	ob := &fakeOutbox{}
	users := &fakeUsers{users: map[uuid.UUID]*models.User{}}
	svc, err := NewService(repo, fakeTxRunner{}, ob, users, testConfig())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, ob, users
}

func TestService_RecordEventCreatesRecordLazily(t *testing.T) {
	svc, repo, _, users := newTestEngine(t)
	customerID := users.add(enums.UserRoleCustomer)

	record, err := svc.RecordEvent(context.Background(), RecordEventInput{
		UserID: customerID,
		Type:   enums.ReputationEventOrderCompleted,
	})
	if err != nil {
		t.Fatalf("RecordEvent error: %v", err)
	}
	if record.Score != 2 {
		t.Fatalf("expected score 2, got %d", record.Score)
	}
	if record.Status != enums.ReputationStatusNormal {
		t.Fatalf("expected normal status, got %s", record.Status)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected one event row, got %d", len(repo.events))
	}
}

func TestService_ConcurrentEventsNeverLoseADelta(t *testing.T) {
	repo := &lockingRepository{fakeRepository: newFakeRepository()}
	ob := &fakeOutbox{}
	users := &fakeUsers{users: map[uuid.UUID]*models.User{}}
	svc, err := NewService(repo, fakeTxRunner{}, ob, users, testConfig())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	customerID := users.add(enums.UserRoleCustomer)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordEvent(context.Background(), RecordEventInput{
				UserID: customerID,
				Type:   enums.ReputationEventOrderCompleted,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}

	stored := repo.records[customerID]
	if stored == nil {
		t.Fatal("expected a stored record")
	}
	if len(repo.events) != writers {
		t.Fatalf("expected %d event rows, got %d", writers, len(repo.events))
	}
	if stored.Score != writers*2 {
		t.Fatalf("stored score %d diverges from the event-log fold %d", stored.Score, writers*2)
	}

	replayed, err := svc.Replay(context.Background(), customerID)
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if replayed.Score != stored.Score {
		t.Fatalf("replay score %d diverges from stored %d", replayed.Score, stored.Score)
	}
}

func TestService_RecordEventUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestEngine(t)

	_, err := svc.RecordEvent(context.Background(), RecordEventInput{
		UserID: uuid.New(),
		Type:   enums.ReputationEventOrderCompleted,
	})
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_CustomerBlacklistIsTerminal(t *testing.T) {
	svc, _, ob, users := newTestEngine(t)
	customerID := users.add(enums.UserRoleCustomer)

	// Five upheld complaints drive the score to -50.
	var record *models.ReputationRecord
	var err error
	for i := 0; i < 5; i++ {
		record, err = svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: customerID,
			Type:   enums.ReputationEventComplaintUpheld,
		})
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}
	if record.Status != enums.ReputationStatusBlacklisted {
		t.Fatalf("expected blacklisted at score %d, got %s", record.Score, record.Status)
	}
	if !ob.has(enums.EventCustomerBlacklisted) {
		t.Fatal("expected blacklist outbox event")
	}

	// Recovery events never lift the blacklist.
	for i := 0; i < 100; i++ {
		record, err = svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: customerID,
			Type:   enums.ReputationEventOrderCompleted,
		})
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}
	if record.Status != enums.ReputationStatusBlacklisted {
		t.Fatalf("blacklist must be terminal, got %s", record.Status)
	}
}

func TestService_CustomerVIPPromotion(t *testing.T) {
	svc, _, ob, users := newTestEngine(t)
	customerID := users.add(enums.UserRoleCustomer)

	var record *models.ReputationRecord
	var err error
	for i := 0; i < 50; i++ {
		record, err = svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: customerID,
			Type:   enums.ReputationEventOrderCompleted,
		})
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}
	if record.Score != 100 || record.Status != enums.ReputationStatusVIP {
		t.Fatalf("expected VIP at 100, got score=%d status=%s", record.Score, record.Status)
	}
	if !ob.has(enums.EventCustomerPromoted) {
		t.Fatal("expected promotion outbox event")
	}
}

func TestService_StaffDemotionAndFiring(t *testing.T) {
	svc, _, _, users := newTestEngine(t)
	chefID := users.add(enums.UserRoleChef)

	upheld := func() *models.ReputationRecord {
		record, err := svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: chefID,
			Type:   enums.ReputationEventComplaintUpheld,
		})
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
		return record
	}

	var record *models.ReputationRecord
	for i := 0; i < 3; i++ {
		record = upheld()
	}
	if record.DemotionCount != 1 {
		t.Fatalf("expected first demotion after 3 upheld complaints, got %d", record.DemotionCount)
	}
	if record.Status != enums.ReputationStatusDemoted {
		t.Fatalf("expected demoted status, got %s", record.Status)
	}
	if record.ComplaintCount != 0 {
		t.Fatal("demotion must reset the complaint counter")
	}

	for i := 0; i < 3; i++ {
		record = upheld()
	}
	if record.DemotionCount != 2 || record.Status != enums.ReputationStatusFired {
		t.Fatalf("expected firing on second demotion, got count=%d status=%s", record.DemotionCount, record.Status)
	}
}

func TestService_StaffBonusOnCompliments(t *testing.T) {
	svc, _, ob, users := newTestEngine(t)
	deliveryID := users.add(enums.UserRoleDelivery)

	var record *models.ReputationRecord
	var err error
	for i := 0; i < 3; i++ {
		record, err = svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: deliveryID,
			Type:   enums.ReputationEventCompliment,
		})
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}
	if record.ComplimentCount != 0 {
		t.Fatal("bonus must reset the compliment counter")
	}
	if !ob.has(enums.EventStaffBonusAwarded) {
		t.Fatal("expected bonus outbox event")
	}
	// 3 compliments (+30) plus bonus (+15).
	if record.Score != 45 {
		t.Fatalf("expected score 45, got %d", record.Score)
	}
}

func TestService_WarningsDemoteVIPThenDeactivate(t *testing.T) {
	svc, repo, _, users := newTestEngine(t)
	customerID := users.add(enums.UserRoleCustomer)

	// Seed a VIP record directly; the warnings are what is under test.
	record := &models.ReputationRecord{
		UserID: customerID,
		Role:   enums.UserRoleCustomer,
		Score:  100,
		Status: enums.ReputationStatusVIP,
	}
	if _, err := repo.CreateRecordIfAbsent(context.Background(), record); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	warn := func() *models.ReputationRecord {
		got, err := svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: customerID,
			Type:   enums.ReputationEventWarning,
		})
		if err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
		return got
	}

	warn()
	got := warn()
	if got.Status == enums.ReputationStatusVIP {
		t.Fatal("two warnings must demote a VIP")
	}
	if got.WarningCount != 0 {
		t.Fatalf("VIP demotion resets warnings, got %d", got.WarningCount)
	}
}

func TestService_RatingReceivedValidation(t *testing.T) {
	svc, _, _, users := newTestEngine(t)
	chefID := users.add(enums.UserRoleChef)

	bad := 6
	_, err := svc.RecordEvent(context.Background(), RecordEventInput{
		UserID: chefID,
		Type:   enums.ReputationEventRatingReceived,
		Rating: &bad,
	})
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		UserID: chefID,
		Type:   enums.ReputationEventRatingReceived,
	})
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for missing rating, got %v", err)
	}
}

func TestService_ReplayMatchesStoredRecord(t *testing.T) {
	svc, repo, _, users := newTestEngine(t)
	chefID := users.add(enums.UserRoleChef)

	script := []RecordEventInput{
		{UserID: chefID, Type: enums.ReputationEventCompliment},
		{UserID: chefID, Type: enums.ReputationEventComplaintUpheld},
		{UserID: chefID, Type: enums.ReputationEventComplaintUpheld},
		{UserID: chefID, Type: enums.ReputationEventCompliment, Weight: 2},
		{UserID: chefID, Type: enums.ReputationEventComplaintUpheld},
	}
	ratings := []int{5, 1, 3}
	for _, input := range script {
		if _, err := svc.RecordEvent(context.Background(), input); err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}
	for i := range ratings {
		if _, err := svc.RecordEvent(context.Background(), RecordEventInput{
			UserID: chefID,
			Type:   enums.ReputationEventRatingReceived,
			Rating: &ratings[i],
		}); err != nil {
			t.Fatalf("RecordEvent error: %v", err)
		}
	}

	stored := repo.records[chefID]
	replayed, err := svc.Replay(context.Background(), chefID)
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if replayed.Score != stored.Score {
		t.Fatalf("score mismatch: replay=%d stored=%d", replayed.Score, stored.Score)
	}
	if replayed.Status != stored.Status {
		t.Fatalf("status mismatch: replay=%s stored=%s", replayed.Status, stored.Status)
	}
	if replayed.WarningCount != stored.WarningCount ||
		replayed.ComplaintCount != stored.ComplaintCount ||
		replayed.ComplimentCount != stored.ComplimentCount ||
		replayed.DemotionCount != stored.DemotionCount ||
		replayed.RatingSum != stored.RatingSum ||
		replayed.RatingCount != stored.RatingCount {
		t.Fatalf("counter mismatch: replay=%+v stored=%+v", replayed, stored)
	}
}

func TestService_DisputeOnlyOnce(t *testing.T) {
	svc, _, _, users := newTestEngine(t)
	complainantID := users.add(enums.UserRoleCustomer)
	subjectID := users.add(enums.UserRoleChef)

	complaint, err := svc.FileComplaint(context.Background(), FileComplaintInput{
		ComplainantID: complainantID,
		SubjectID:     subjectID,
		Title:         "cold food",
		Description:   "arrived cold twice",
	})
	if err != nil {
		t.Fatalf("FileComplaint error: %v", err)
	}

	disputed, err := svc.Dispute(context.Background(), DisputeInput{
		ComplaintID: complaint.ID,
		SubjectID:   subjectID,
		Narrative:   "the courier was late, not the kitchen",
	})
	if err != nil {
		t.Fatalf("Dispute error: %v", err)
	}
	if disputed.Status != enums.ComplaintStatusDisputed || disputed.DisputeNarrative == nil {
		t.Fatalf("dispute not recorded: %+v", disputed)
	}

	_, err = svc.Dispute(context.Background(), DisputeInput{
		ComplaintID: complaint.ID,
		SubjectID:   subjectID,
		Narrative:   "another story",
	})
	if !apperrors.Is(err, apperrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on second dispute, got %v", err)
	}
}

func TestService_DisputeOnlyBySubject(t *testing.T) {
	svc, _, _, users := newTestEngine(t)
	complainantID := users.add(enums.UserRoleCustomer)
	subjectID := users.add(enums.UserRoleChef)

	complaint, err := svc.FileComplaint(context.Background(), FileComplaintInput{
		ComplainantID: complainantID,
		SubjectID:     subjectID,
		Title:         "late",
		Description:   "very late",
	})
	if err != nil {
		t.Fatalf("FileComplaint error: %v", err)
	}

	_, err = svc.Dispute(context.Background(), DisputeInput{
		ComplaintID: complaint.ID,
		SubjectID:   complainantID,
		Narrative:   "not mine to dispute",
	})
	if !apperrors.Is(err, apperrors.CodeEligibility) {
		t.Fatalf("expected eligibility error, got %v", err)
	}
}

func TestService_DecideResolveRecordsUpheldEvent(t *testing.T) {
	svc, repo, _, users := newTestEngine(t)
	complainantID := users.add(enums.UserRoleCustomer)
	subjectID := users.add(enums.UserRoleDelivery)
	managerID := users.add(enums.UserRoleManager)

	complaint, err := svc.FileComplaint(context.Background(), FileComplaintInput{
		ComplainantID: complainantID,
		SubjectID:     subjectID,
		Title:         "wrong address",
		Description:   "delivered to the neighbor",
	})
	if err != nil {
		t.Fatalf("FileComplaint error: %v", err)
	}

	decided, err := svc.Decide(context.Background(), DecideInput{
		ComplaintID: complaint.ID,
		ManagerID:   managerID,
		Decision:    enums.ManagerDecisionResolve,
		Notes:       "confirmed with photos",
	})
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if decided.Status != enums.ComplaintStatusUpheld {
		t.Fatalf("expected upheld, got %s", decided.Status)
	}

	record := repo.records[subjectID]
	if record == nil || record.ComplaintCount != 1 || record.Score != -10 {
		t.Fatalf("upheld complaint not folded: %+v", record)
	}

	// A second decision on the same complaint must fail.
	_, err = svc.Decide(context.Background(), DecideInput{
		ComplaintID: complaint.ID,
		ManagerID:   managerID,
		Decision:    enums.ManagerDecisionReject,
	})
	if !apperrors.Is(err, apperrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_DecideRequiresManagerRole(t *testing.T) {
	svc, _, _, users := newTestEngine(t)
	complainantID := users.add(enums.UserRoleCustomer)
	subjectID := users.add(enums.UserRoleChef)

	complaint, err := svc.FileComplaint(context.Background(), FileComplaintInput{
		ComplainantID: complainantID,
		SubjectID:     subjectID,
		Title:         "salty",
		Description:   "way too salty",
	})
	if err != nil {
		t.Fatalf("FileComplaint error: %v", err)
	}

	_, err = svc.Decide(context.Background(), DecideInput{
		ComplaintID: complaint.ID,
		ManagerID:   complainantID,
		Decision:    enums.ManagerDecisionResolve,
	})
	if !apperrors.Is(err, apperrors.CodeEligibility) {
		t.Fatalf("expected eligibility error, got %v", err)
	}
}

func TestService_ComplimentCancelsOpenComplaint(t *testing.T) {
	svc, repo, _, users := newTestEngine(t)
	giverID := users.add(enums.UserRoleCustomer)
	receiverID := users.add(enums.UserRoleChef)
	otherID := users.add(enums.UserRoleCustomer)

	complaint, err := svc.FileComplaint(context.Background(), FileComplaintInput{
		ComplainantID: otherID,
		SubjectID:     receiverID,
		Title:         "bland",
		Description:   "needs seasoning",
	})
	if err != nil {
		t.Fatalf("FileComplaint error: %v", err)
	}

	if _, err := svc.FileCompliment(context.Background(), FileComplimentInput{
		GiverID:    giverID,
		ReceiverID: receiverID,
		Title:      "best pad thai in town",
	}); err != nil {
		t.Fatalf("FileCompliment error: %v", err)
	}

	if repo.complaints[complaint.ID].Status != enums.ComplaintStatusDismissed {
		t.Fatalf("open complaint not cancelled: %s", repo.complaints[complaint.ID].Status)
	}
	record := repo.records[receiverID]
	if record == nil || record.Score != 10 {
		t.Fatalf("compliment not folded: %+v", record)
	}
}

func TestService_VIPComplimentCarriesDoubleWeight(t *testing.T) {
	svc, repo, _, users := newTestEngine(t)
	giverID := users.add(enums.UserRoleCustomer)
	receiverID := users.add(enums.UserRoleChef)

	if _, err := repo.CreateRecordIfAbsent(context.Background(), &models.ReputationRecord{
		UserID: giverID,
		Role:   enums.UserRoleCustomer,
		Score:  100,
		Status: enums.ReputationStatusVIP,
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	compliment, err := svc.FileCompliment(context.Background(), FileComplimentInput{
		GiverID:    giverID,
		ReceiverID: receiverID,
		Title:      "flawless",
	})
	if err != nil {
		t.Fatalf("FileCompliment error: %v", err)
	}
	if compliment.Weight != 2 {
		t.Fatalf("expected VIP weight 2, got %d", compliment.Weight)
	}
	if repo.records[receiverID].Score != 20 {
		t.Fatalf("expected doubled delta, got %d", repo.records[receiverID].Score)
	}
}
