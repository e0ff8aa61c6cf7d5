package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"ledger-app/controllers/idgen"
	"ledger-app/models"
	"ledger-app/types"

	"gorm.io/gorm"
)

// SyncRepository exchanges deltas with a remote client that holds its own
// copy of a subset of the ledger. Pull is a consistent read bounded by the
// client's cursor; push ingests client-created records in one all-or-nothing
// transaction. The server keeps no per-client cursor: the client owns
// last_pulled_at and presents it on every call.
type SyncRepository struct {
	db *gorm.DB
}

func NewSyncRepository(db *gorm.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// Sync entity type tags, also the SyncOrigin dedupe namespaces.
const (
	SyncEntityProduct  = "product"
	SyncEntityBatch    = "product_batch"
	SyncEntitySerial   = "product_serial"
	SyncEntityMovement = "stock_movement"
)

// ProductChange is a product row serialized for a client: the string id is
// safe for clients that cannot hold 64-bit numbers, and server_id carries
// the numeric key for mapping back.
type ProductChange struct {
	ID                string  `json:"id"`
	ServerID          uint    `json:"server_id"`
	ItemCode          string  `json:"item_code"`
	ItemName          string  `json:"item_name"`
	Barcode           string  `json:"barcode"`
	TrackingType      string  `json:"tracking_type"`
	Quantity          int     `json:"quantity"`
	Mrp               float64 `json:"mrp"`
	Mop               float64 `json:"mop"`
	Cost              float64 `json:"cost"`
	IsActive          bool    `json:"is_active"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	UpdatedAt         int64   `json:"updated_at"`
}

type BatchChange struct {
	ID              string  `json:"id"`
	ServerID        uint    `json:"server_id"`
	ProductID       string  `json:"product_id"`
	ServerProductID uint    `json:"server_product_id"`
	BatchNumber     string  `json:"batch_number"`
	BatchUID        string  `json:"batch_uid"`
	Quantity        int     `json:"quantity"`
	MfgDate         string  `json:"mfg_date"`
	ExpDate         string  `json:"exp_date"`
	Mrp             float64 `json:"mrp"`
	Mop             float64 `json:"mop"`
	Cost            float64 `json:"cost"`
	Supplier        string  `json:"supplier"`
	IsActive        bool    `json:"is_active"`
	UpdatedAt       int64   `json:"updated_at"`
}

type SerialChange struct {
	ID              string `json:"id"`
	ServerID        uint   `json:"server_id"`
	ProductID       string `json:"product_id"`
	ServerProductID uint   `json:"server_product_id"`
	BatchID         string `json:"batch_id"`
	ServerBatchID   uint   `json:"server_batch_id"`
	SerialNumber    string `json:"serial_number"`
	Code            string `json:"code"`
	Status          string `json:"status"`
	UpdatedAt       int64  `json:"updated_at"`
}

type ProductBuckets struct {
	Created []ProductChange `json:"created"`
	Updated []ProductChange `json:"updated"`
	Deleted []string        `json:"deleted"`
}

type BatchBuckets struct {
	Created []BatchChange `json:"created"`
	Updated []BatchChange `json:"updated"`
	Deleted []string      `json:"deleted"`
}

type SerialBuckets struct {
	Created []SerialChange `json:"created"`
	Updated []SerialChange `json:"updated"`
	Deleted []string       `json:"deleted"`
}

type PullChanges struct {
	Products       ProductBuckets `json:"products"`
	ProductBatches BatchBuckets   `json:"product_batches"`
	ProductSerials SerialBuckets  `json:"product_serials"`
}

type PullResult struct {
	Changes   PullChanges `json:"changes"`
	Timestamp int64       `json:"timestamp"`
}

// Pull returns every row changed after the client's cursor, bucketed into
// created/updated/deleted per entity type, plus the new cursor value.
//
// The cursor is captured before the reads run, inside a read transaction:
// a row updated mid-query lands in this window or the next, never in the
// gap between them. First sync (cursor 0) with activeOnly set returns a
// snapshot of live rows only, to bound the initial payload.
func (r *SyncRepository) Pull(lastPulledAt int64, activeOnly bool) (*PullResult, error) {
	result := &PullResult{
		Changes: PullChanges{
			Products:       ProductBuckets{Created: []ProductChange{}, Updated: []ProductChange{}, Deleted: []string{}},
			ProductBatches: BatchBuckets{Created: []BatchChange{}, Updated: []BatchChange{}, Deleted: []string{}},
			ProductSerials: SerialBuckets{Created: []SerialChange{}, Updated: []SerialChange{}, Deleted: []string{}},
		},
	}

	result.Timestamp = time.Now().UTC().UnixMilli()
	since := time.UnixMilli(lastPulledAt).UTC()
	first := lastPulledAt == 0

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var products []models.Product
		// deleted_at is matched separately: a soft delete stamps it without
		// touching updated_at, and tombstones must still reach the client.
		pq := tx.Unscoped().Where("updated_at > ? OR deleted_at > ?", since, since)
		if first {
			pq = tx.Where("updated_at > ?", since)
			if activeOnly {
				pq = pq.Where("is_active = ?", true)
			}
		}
		if err := pq.Order("id").Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			if p.DeletedAt.Valid {
				result.Changes.Products.Deleted = append(result.Changes.Products.Deleted, formatID(p.ID))
				continue
			}
			change := productChange(p)
			if first || p.CreatedAt.After(since) {
				result.Changes.Products.Created = append(result.Changes.Products.Created, change)
			} else {
				result.Changes.Products.Updated = append(result.Changes.Products.Updated, change)
			}
		}

		var batches []models.Batch
		bq := tx.Unscoped().Where("updated_at > ? OR deleted_at > ?", since, since)
		if first {
			bq = tx.Where("updated_at > ?", since)
			if activeOnly {
				bq = bq.Where("is_active = ? AND quantity > 0", true)
			}
		}
		if err := bq.Order("id").Find(&batches).Error; err != nil {
			return err
		}
		for _, b := range batches {
			if b.DeletedAt.Valid {
				result.Changes.ProductBatches.Deleted = append(result.Changes.ProductBatches.Deleted, formatID(b.ID))
				continue
			}
			change := batchChange(b)
			if first || b.CreatedAt.After(since) {
				result.Changes.ProductBatches.Created = append(result.Changes.ProductBatches.Created, change)
			} else {
				result.Changes.ProductBatches.Updated = append(result.Changes.ProductBatches.Updated, change)
			}
		}

		var serials []models.Serial
		sq := tx.Unscoped().Where("updated_at > ? OR deleted_at > ?", since, since)
		if first {
			sq = tx.Where("updated_at > ?", since)
			if activeOnly {
				sq = sq.Where("status = ?", models.SerialAvailable)
			}
		}
		if err := sq.Order("id").Find(&serials).Error; err != nil {
			return err
		}
		for _, s := range serials {
			if s.DeletedAt.Valid {
				result.Changes.ProductSerials.Deleted = append(result.Changes.ProductSerials.Deleted, formatID(s.ID))
				continue
			}
			change := serialChange(s)
			if first || s.CreatedAt.After(since) {
				result.Changes.ProductSerials.Created = append(result.Changes.ProductSerials.Created, change)
			} else {
				result.Changes.ProductSerials.Updated = append(result.Changes.ProductSerials.Updated, change)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Push payloads. Every record carries the client-local id; references to
// parents may be client refs from the same payload, refs from an earlier
// push, or plain numeric server ids.
type PushProduct struct {
	ID                string  `json:"id"`
	ItemCode          string  `json:"item_code"`
	ItemName          string  `json:"item_name"`
	Barcode           string  `json:"barcode"`
	TrackingType      string  `json:"tracking_type"`
	Mrp               float64 `json:"mrp"`
	Mop               float64 `json:"mop"`
	Cost              float64 `json:"cost"`
	LowStockThreshold int     `json:"low_stock_threshold"`
}

type PushBatch struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	BatchNumber string  `json:"batch_number"`
	MfgDate     string  `json:"mfg_date"`
	ExpDate     string  `json:"exp_date"`
	Mrp         float64 `json:"mrp"`
	Mop         float64 `json:"mop"`
	Cost        float64 `json:"cost"`
	Supplier    string  `json:"supplier"`
}

type PushSerial struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	BatchID      string `json:"batch_id"`
	SerialNumber string `json:"serial_number"`
}

type PushMovement struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	BatchID   string `json:"batch_id"`
	SerialID  string `json:"serial_id"`
	Trans     string `json:"trans"`
	RefNo     string `json:"ref_no"`
	Qty       int    `json:"qty"`
}

type PushChanges struct {
	Products       []PushProduct  `json:"products"`
	ProductBatches []PushBatch    `json:"product_batches"`
	ProductSerials []PushSerial   `json:"product_serials"`
	StockMovements []PushMovement `json:"stock_movements"`
}

// PushAck acknowledges an ingested payload. Receipt is a server-minted id
// for support correlation; IDMap lets the client relink its local records.
type PushAck struct {
	Receipt types.SnowflakeID `json:"receipt"`
	Status  string            `json:"status"`
	IDMap   map[string]string `json:"id_map"`
}

// Push applies client-originated records inside one transaction. The ack
// carries the client-ref to server-id map so the client can relink dependent
// records. A record whose client ref was already ingested is skipped and its
// stored server id re-acked, which makes a wholesale retry after a crashed
// push safe. Any bad record rolls back the entire payload.
//
// lastPulledAt is accepted for protocol symmetry; pushes only create
// records, so there is nothing to conflict with yet (ErrSyncConflict is
// reserved for when client-side updates are allowed).
func (r *SyncRepository) Push(changes PushChanges, lastPulledAt int64, actor int) (*PushAck, error) {
	_ = lastPulledAt

	ack := &PushAck{
		Receipt: types.SnowflakeID(idgen.GenerateID()),
		Status:  "ok",
		IDMap:   make(map[string]string),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		refs := make(map[string]uint)
		key := func(entity, ref string) string { return entity + ":" + ref }

		for _, p := range changes.Products {
			if p.ID == "" {
				return fmt.Errorf("pushed product missing client id")
			}
			if serverID, seen, err := r.seenRef(tx, SyncEntityProduct, p.ID); err != nil {
				return err
			} else if seen {
				refs[key(SyncEntityProduct, p.ID)] = serverID
				ack.IDMap[p.ID] = formatID(serverID)
				continue
			}

			tracking := models.TrackingType(p.TrackingType)
			if p.TrackingType == "" {
				tracking = models.TrackingNone
			}
			if !tracking.Valid() {
				return fmt.Errorf("pushed product %s has unknown tracking type %q", p.ID, p.TrackingType)
			}
			product := models.Product{
				ItemCode:          p.ItemCode,
				ItemName:          p.ItemName,
				Barcode:           p.Barcode,
				TrackingType:      tracking,
				Mrp:               p.Mrp,
				Mop:               p.Mop,
				Cost:              p.Cost,
				IsActive:          true,
				LowStockThreshold: p.LowStockThreshold,
				CreatedBy:         actor,
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			if err := r.recordRef(tx, SyncEntityProduct, p.ID, product.ID, actor); err != nil {
				return err
			}
			refs[key(SyncEntityProduct, p.ID)] = product.ID
			ack.IDMap[p.ID] = formatID(product.ID)
		}

		for _, b := range changes.ProductBatches {
			if b.ID == "" {
				return fmt.Errorf("pushed batch missing client id")
			}
			if serverID, seen, err := r.seenRef(tx, SyncEntityBatch, b.ID); err != nil {
				return err
			} else if seen {
				refs[key(SyncEntityBatch, b.ID)] = serverID
				ack.IDMap[b.ID] = formatID(serverID)
				continue
			}

			productID, err := r.resolveRef(tx, SyncEntityProduct, b.ProductID, refs, key)
			if err != nil {
				return err
			}
			batch := models.Batch{
				ProductID:   productID,
				BatchNumber: b.BatchNumber,
				BatchUID:    idgen.BatchUID(),
				MfgDate:     b.MfgDate,
				ExpDate:     b.ExpDate,
				Mrp:         b.Mrp,
				Mop:         b.Mop,
				Cost:        b.Cost,
				Supplier:    b.Supplier,
				IsActive:    true,
				CreatedBy:   actor,
			}
			if err := tx.Create(&batch).Error; err != nil {
				return err
			}
			if err := r.recordRef(tx, SyncEntityBatch, b.ID, batch.ID, actor); err != nil {
				return err
			}
			refs[key(SyncEntityBatch, b.ID)] = batch.ID
			ack.IDMap[b.ID] = formatID(batch.ID)
		}

		for _, s := range changes.ProductSerials {
			if s.ID == "" {
				return fmt.Errorf("pushed serial missing client id")
			}
			if serverID, seen, err := r.seenRef(tx, SyncEntitySerial, s.ID); err != nil {
				return err
			} else if seen {
				refs[key(SyncEntitySerial, s.ID)] = serverID
				ack.IDMap[s.ID] = formatID(serverID)
				continue
			}

			productID, err := r.resolveRef(tx, SyncEntityProduct, s.ProductID, refs, key)
			if err != nil {
				return err
			}
			batchID, err := r.resolveRef(tx, SyncEntityBatch, s.BatchID, refs, key)
			if err != nil {
				return err
			}

			var existing models.Serial
			err = tx.Where("serial_number = ?", s.SerialNumber).Take(&existing).Error
			if err == nil {
				return fmt.Errorf("%w: %s", ErrDuplicateSerial, s.SerialNumber)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			var batch models.Batch
			if err := tx.Where("id = ?", batchID).Take(&batch).Error; err != nil {
				return err
			}

			serial := models.Serial{
				ProductID:    productID,
				BatchID:      batchID,
				SerialNumber: s.SerialNumber,
				Code:         models.SerialCode(batch.BatchUID, s.SerialNumber),
				Status:       models.SerialAvailable,
				CreatedBy:    actor,
			}
			if err := createSerialRow(tx, &serial); err != nil {
				return err
			}
			if err := r.recordRef(tx, SyncEntitySerial, s.ID, serial.ID, actor); err != nil {
				return err
			}
			refs[key(SyncEntitySerial, s.ID)] = serial.ID
			ack.IDMap[s.ID] = formatID(serial.ID)
		}

		ledger := NewLedgerRepository(tx)
		for _, mv := range changes.StockMovements {
			if mv.ID == "" {
				return fmt.Errorf("pushed movement missing client id")
			}
			if serverID, seen, err := r.seenRef(tx, SyncEntityMovement, mv.ID); err != nil {
				return err
			} else if seen {
				ack.IDMap[mv.ID] = formatID(serverID)
				continue
			}
			if mv.Qty == 0 {
				return fmt.Errorf("pushed movement %s has zero quantity", mv.ID)
			}

			productID, err := r.resolveRef(tx, SyncEntityProduct, mv.ProductID, refs, key)
			if err != nil {
				return err
			}
			mutation := Mutation{
				ProductID: productID,
				Trans:     models.TransSyncPush,
				RefNo:     mv.RefNo,
				Actor:     actor,
			}
			if mv.Trans != "" {
				mutation.Trans = mv.Trans
			}
			if mv.BatchID != "" {
				batchID, err := r.resolveRef(tx, SyncEntityBatch, mv.BatchID, refs, key)
				if err != nil {
					return err
				}
				mutation.BatchID = &batchID
			}
			if mv.SerialID != "" {
				serialID, err := r.resolveRef(tx, SyncEntitySerial, mv.SerialID, refs, key)
				if err != nil {
					return err
				}
				mutation.SerialID = &serialID
			}

			// Pushed movements replay through the ledger primitives, so
			// offline sales face the same invariant checks as live ones.
			if mv.Qty < 0 {
				mutation.Qty = -mv.Qty
				if err := ledger.Decrement(mutation); err != nil {
					return err
				}
			} else {
				mutation.Qty = mv.Qty
				if err := ledger.Increment(mutation); err != nil {
					return err
				}
			}

			var created models.StockMovement
			if err := tx.Where("product_id = ? AND trans = ? AND ref_no = ?", productID, mutation.Trans, mv.RefNo).
				Order("id desc").Take(&created).Error; err != nil {
				return err
			}
			if err := r.recordRef(tx, SyncEntityMovement, mv.ID, created.ID, actor); err != nil {
				return err
			}
			ack.IDMap[mv.ID] = formatID(created.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return ack, nil
}

func (r *SyncRepository) seenRef(tx *gorm.DB, entity, clientRef string) (uint, bool, error) {
	var origin models.SyncOrigin
	err := tx.Where("entity_type = ? AND client_ref = ?", entity, clientRef).Take(&origin).Error
	if err == nil {
		return origin.ServerID, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	return 0, false, err
}

func (r *SyncRepository) recordRef(tx *gorm.DB, entity, clientRef string, serverID uint, actor int) error {
	return tx.Create(&models.SyncOrigin{
		EntityType: entity,
		ClientRef:  clientRef,
		ServerID:   serverID,
		CreatedBy:  actor,
	}).Error
}

// resolveRef turns a pushed reference into a server id: a client ref created
// earlier in this payload, a ref from an earlier push, or a numeric server id.
func (r *SyncRepository) resolveRef(tx *gorm.DB, entity, ref string, refs map[string]uint, key func(string, string) string) (uint, error) {
	if ref == "" {
		return 0, fmt.Errorf("missing %s reference", entity)
	}
	if id, ok := refs[key(entity, ref)]; ok {
		return id, nil
	}
	if id, seen, err := r.seenRef(tx, entity, ref); err != nil {
		return 0, err
	} else if seen {
		return id, nil
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unresolvable %s reference %q", entity, ref)
	}
	return uint(id), nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func productChange(p models.Product) ProductChange {
	return ProductChange{
		ID:                formatID(p.ID),
		ServerID:          p.ID,
		ItemCode:          p.ItemCode,
		ItemName:          p.ItemName,
		Barcode:           p.Barcode,
		TrackingType:      string(p.TrackingType),
		Quantity:          p.Quantity,
		Mrp:               p.Mrp,
		Mop:               p.Mop,
		Cost:              p.Cost,
		IsActive:          p.IsActive,
		LowStockThreshold: p.LowStockThreshold,
		UpdatedAt:         p.UpdatedAt.UTC().UnixMilli(),
	}
}

func batchChange(b models.Batch) BatchChange {
	return BatchChange{
		ID:              formatID(b.ID),
		ServerID:        b.ID,
		ProductID:       formatID(b.ProductID),
		ServerProductID: b.ProductID,
		BatchNumber:     b.BatchNumber,
		BatchUID:        b.BatchUID,
		Quantity:        b.Quantity,
		MfgDate:         b.MfgDate,
		ExpDate:         b.ExpDate,
		Mrp:             b.Mrp,
		Mop:             b.Mop,
		Cost:            b.Cost,
		Supplier:        b.Supplier,
		IsActive:        b.IsActive,
		UpdatedAt:       b.UpdatedAt.UTC().UnixMilli(),
	}
}

func serialChange(s models.Serial) SerialChange {
	return SerialChange{
		ID:              formatID(s.ID),
		ServerID:        s.ID,
		ProductID:       formatID(s.ProductID),
		ServerProductID: s.ProductID,
		BatchID:         formatID(s.BatchID),
		ServerBatchID:   s.BatchID,
		SerialNumber:    s.SerialNumber,
		Code:            s.Code,
		Status:          s.Status,
		UpdatedAt:       s.UpdatedAt.UTC().UnixMilli(),
	}
}
