package acquisition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Draft carries the editable fields of an acquisition
type Draft struct {
	Title      string
	Kind       Kind
	SupplierID *uuid.UUID
	DueDate    *time.Time
	Notes      string
	Items      []ItemInput
}

// Acquisition is the aggregate root for a material intake
type Acquisition struct {
	shared.BaseAggregateRoot
	Title       string
	Kind        Kind
	Status      Status
	SupplierID  *uuid.UUID
	DueDate     *time.Time
	Notes       string
	CreatedBy   uuid.UUID
	ReceivedBy  *uuid.UUID
	ReceivedAt  *time.Time
	CancelledBy *uuid.UUID
	CancelledAt *time.Time
	Items       []Item
}

// NewAcquisition creates a draft acquisition
func NewAcquisition(d Draft, createdBy uuid.UUID) (*Acquisition, error) {
	if !d.Kind.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "invalid acquisition kind: %q", d.Kind)
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "acting user is required")
	}

	a := &Acquisition{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              d.Kind,
		Status:            StatusDraft,
		CreatedBy:         createdBy,
	}
	if err := a.apply(d); err != nil {
		return nil, err
	}

	a.AddDomainEvent(NewAcquisitionCreatedEvent(a))
	return a, nil
}

// Update replaces the header fields and the whole item list of a draft
func (a *Acquisition) Update(d Draft) error {
	if a.Status != StatusDraft {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot edit acquisition in %s status", a.Status)
	}
	if d.Kind != "" && d.Kind != a.Kind {
		return shared.NewDomainError(shared.CodeValidationFailed, "acquisition kind cannot change")
	}
	if err := a.apply(d); err != nil {
		return err
	}
	a.IncrementVersion()
	return nil
}

func (a *Acquisition) apply(d Draft) error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "acquisition title is required")
	}
	if len(d.Items) == 0 {
		return shared.NewDomainError(shared.CodeValidationFailed, "acquisition needs at least one item")
	}
	items := make([]Item, 0, len(d.Items))
	for i, in := range d.Items {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, newItem(a.ID, i+1, in, a.Kind))
	}

	a.Title = title
	a.SupplierID = d.SupplierID
	a.DueDate = d.DueDate
	a.Notes = strings.TrimSpace(d.Notes)
	a.Items = items
	return nil
}

// GetItem returns the item with the given id, or nil
func (a *Acquisition) GetItem(itemID uuid.UUID) *Item {
	for i := range a.Items {
		if a.Items[i].ID == itemID {
			return &a.Items[i]
		}
	}
	return nil
}

// AssignMaterial binds a pending new-material line to the material created for it
func (a *Acquisition) AssignMaterial(itemID, materialID uuid.UUID) error {
	item := a.GetItem(itemID)
	if item == nil {
		return shared.NewDomainErrorf(shared.CodeValidationFailed, "item %s does not belong to acquisition", itemID)
	}
	item.MaterialID = &materialID
	item.NewMaterial = nil
	item.UpdatedAt = time.Now()
	return nil
}

// ReceiveLine overrides the received quantity of one item.
// A nil Quantity means the ordered quantity arrived.
type ReceiveLine struct {
	ItemID   uuid.UUID
	Quantity *decimal.Decimal
}

// Receipt is what the ledger must credit for one received item
type Receipt struct {
	ItemID     uuid.UUID
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
	Delivery   Delivery
}

// Receive records received quantities for every item and moves the acquisition
// to Received or ReadyForProcessing. Items the caller omits default to their
// ordered quantity. Every item must be bound to a material id first.
func (a *Acquisition) Receive(lines []ReceiveLine, receivedBy uuid.UUID) ([]Receipt, error) {
	target := a.Kind.ReceivedStatus()
	if !a.Status.CanTransitionTo(target) {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot receive acquisition in %s status", a.Status)
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "acting user is required")
	}

	overrides := make(map[uuid.UUID]decimal.Decimal, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if a.GetItem(line.ItemID) == nil {
			return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "item %s does not belong to acquisition", line.ItemID)
		}
		if _, dup := seen[line.ItemID]; dup {
			return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "item %s is listed more than once", line.ItemID)
		}
		seen[line.ItemID] = struct{}{}
		if line.Quantity == nil {
			continue
		}
		if err := shared.RequireNonNegative("received quantity", *line.Quantity); err != nil {
			return nil, err
		}
		overrides[line.ItemID] = *line.Quantity
	}

	receipts := make([]Receipt, 0, len(a.Items))
	for i := range a.Items {
		item := &a.Items[i]
		if item.MaterialID == nil {
			return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "item %d has no material", item.LineNo)
		}
		qty, ok := overrides[item.ID]
		if !ok {
			qty = item.OrderedQuantity
		}
		receipts = append(receipts, Receipt{
			ItemID:     item.ID,
			MaterialID: *item.MaterialID,
			Quantity:   qty,
			Delivery:   Classify(item.OrderedQuantity, qty),
		})
	}

	now := time.Now()
	for i := range a.Items {
		qty := receipts[i].Quantity
		a.Items[i].ReceivedQuantity = &qty
		a.Items[i].UpdatedAt = now
	}
	a.Status = target
	a.ReceivedBy = &receivedBy
	a.ReceivedAt = &now
	a.IncrementVersion()

	a.AddDomainEvent(NewAcquisitionReceivedEvent(a, receipts))
	return receipts, nil
}

// Cancel cancels a draft. Received acquisitions cannot be cancelled.
func (a *Acquisition) Cancel(cancelledBy uuid.UUID) error {
	if !a.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot cancel acquisition in %s status", a.Status)
	}
	now := time.Now()
	a.Status = StatusCancelled
	if cancelledBy != uuid.Nil {
		a.CancelledBy = &cancelledBy
	}
	a.CancelledAt = &now
	a.IncrementVersion()

	a.AddDomainEvent(NewAcquisitionCancelledEvent(a, cancelledBy))
	return nil
}

// TotalOrderedQuantity sums ordered quantities across items
func (a *Acquisition) TotalOrderedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range a.Items {
		total = total.Add(item.OrderedQuantity)
	}
	return total
}

// TotalReceivedQuantity sums received quantities across items
func (a *Acquisition) TotalReceivedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range a.Items {
		if item.ReceivedQuantity != nil {
			total = total.Add(*item.ReceivedQuantity)
		}
	}
	return total
}

// ReceivedValue is the valuation of everything received
func (a *Acquisition) ReceivedValue() decimal.Decimal {
	total := decimal.Zero
	for i := range a.Items {
		total = total.Add(a.Items[i].ReceivedValue())
	}
	return total
}

// IsDraft returns true if the acquisition can still be edited
func (a *Acquisition) IsDraft() bool {
	return a.Status == StatusDraft
}

// IsTerminal returns true for received or cancelled acquisitions.
// ReadyForProcessing is not terminal: processing may still follow.
func (a *Acquisition) IsTerminal() bool {
	return a.Status == StatusReceived || a.Status == StatusCancelled
}
