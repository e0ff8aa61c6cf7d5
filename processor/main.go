package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ledger-app/config"
	"ledger-app/controllers/idgen"
	"ledger-app/database"
	"ledger-app/models"
	"ledger-app/repositories"
	"ledger-app/utils"

	"github.com/xuri/excelize/v2"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// The processor is a batch companion to the API server: it books receiving
// files dropped by the purchasing system into the ledger and mails a
// low-stock summary. It shares the database but holds no in-process state
// with the server.
func main() {
	config.LoadConfig()
	utils.SetLogLevel(config.LogLevel)
	idgen.Init()

	db, err := database.Open()
	if err != nil {
		utils.Log.Fatal().Err(err).Msg("failed to connect to database")
	}

	processReceivingFiles(db)
	checkLowStock(db)
}

// processReceivingFiles allocates every unprocessed RCV_*.xlsx in the drop
// directory. A file is booked at most once, tracked through FileLog.
func processReceivingFiles(db *gorm.DB) {
	pattern := filepath.Join(config.ReceivingDir, "RCV_*.xlsx")
	files, err := filepath.Glob(pattern)
	if err != nil {
		utils.Log.Error().Err(err).Str("dir", config.ReceivingDir).Msg("failed to scan receiving directory")
		return
	}

	for _, file := range files {
		name := filepath.Base(file)

		var existing models.FileLog
		if err := db.Where("filename = ?", name).First(&existing).Error; err == nil {
			utils.Log.Debug().Str("file", name).Msg("already processed, skipping")
			continue
		}

		booked, err := processReceivingFile(db, file)
		if err != nil {
			utils.Log.Error().Err(err).Str("file", name).Msg("failed to process receiving file")
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			utils.Log.Error().Err(err).Str("file", name).Msg("failed to stat receiving file")
			continue
		}
		db.Create(&models.FileLog{Filename: name, DateModified: info.ModTime()})
		utils.Log.Info().Str("file", name).Int("rows", booked).Msg("receiving file booked")
	}
}

// Receiving sheet layout, one row per lot, header on row 1:
// item_code | qty | batch_number | mfg_date | exp_date | cost | mrp | supplier | serials
// serials is a semicolon-separated list, required for serial-tracked items.
func processReceivingFile(db *gorm.DB, filename string) (int, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return 0, err
	}

	allocator := repositories.NewAllocationRepository(db)
	booked := 0

	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}

		itemCode := strings.TrimSpace(row[0])
		qty, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || itemCode == "" {
			utils.Log.Warn().Str("file", filename).Int("row", i+1).Msg("skipping malformed receiving row")
			continue
		}

		var product models.Product
		if err := db.Where("item_code = ?", itemCode).Take(&product).Error; err != nil {
			utils.Log.Warn().Str("item_code", itemCode).Int("row", i+1).Msg("unknown item code, skipping row")
			continue
		}

		in := repositories.AllocationInput{
			ProductID:   product.ID,
			Qty:         qty,
			BatchNumber: cell(row, 2),
			MfgDate:     cell(row, 3),
			ExpDate:     cell(row, 4),
			RefNo:       filepath.Base(filename),
		}
		if cost := cell(row, 5); cost != "" {
			in.Cost, _ = strconv.ParseFloat(cost, 64)
		}
		if mrp := cell(row, 6); mrp != "" {
			in.Mrp, _ = strconv.ParseFloat(mrp, 64)
		}
		in.Supplier = cell(row, 7)
		if serials := cell(row, 8); serials != "" {
			for _, sn := range strings.Split(serials, ";") {
				if sn = strings.TrimSpace(sn); sn != "" {
					in.Serials = append(in.Serials, sn)
				}
			}
		}

		if _, err := allocator.Allocate(in); err != nil {
			return booked, fmt.Errorf("row %d (%s): %w", i+1, itemCode, err)
		}
		booked++
	}

	return booked, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// checkLowStock mails a summary of active products at or under their
// low-stock threshold.
func checkLowStock(db *gorm.DB) {
	if !models.SettingBool(db, models.SettingLowStockAlertMail) {
		return
	}
	if config.SMTPHost == "" || config.AlertMailTo == "" {
		utils.Log.Debug().Msg("smtp not configured, skipping low stock alert")
		return
	}

	var low []models.Product
	err := db.Where("is_active = ? AND low_stock_threshold > 0 AND quantity <= low_stock_threshold", true).
		Order("quantity").Find(&low).Error
	if err != nil {
		utils.Log.Error().Err(err).Msg("low stock query failed")
		return
	}
	if len(low) == 0 {
		return
	}

	var body strings.Builder
	body.WriteString("<p>Products at or below their low-stock threshold:</p><ul>")
	for _, p := range low {
		fmt.Fprintf(&body, "<li>%s (%s): %d on hand, threshold %d</li>",
			p.ItemName, p.ItemCode, p.Quantity, p.LowStockThreshold)
	}
	body.WriteString("</ul>")

	msg := gomail.NewMessage()
	msg.SetHeader("From", config.SMTPUser)
	msg.SetHeader("To", config.AlertMailTo)
	msg.SetHeader("Subject", fmt.Sprintf("Low stock alert: %d products", len(low)))
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		utils.Log.Error().Err(err).Msg("failed to send low stock alert")
		return
	}
	utils.Log.Info().Int("products", len(low)).Msg("low stock alert sent")
}
