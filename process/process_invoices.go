package main

import (
	"flag"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bilalelmas/invoscan/models"
	"github.com/bilalelmas/invoscan/pkg/invoice"
	"github.com/bilalelmas/invoscan/pkg/ocrsource"
)

// Global DB handle for helper funcs
var db *gorm.DB

// global flags (parsed in main)
var (
	verbose     bool
	simulateOCR bool
)

// MIME mapping to avoid opening files repeatedly
var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".txt":  "text/plain",
}

// preload caches
type preloadState struct {
	uploadsByFile map[string]*models.Upload        // fileName -> upload
	invoiceByETTN map[string]*models.InvoiceRecord // ettn -> record
	mu            sync.RWMutex
}

func newPreloadState() *preloadState {
	return &preloadState{
		uploadsByFile: make(map[string]*models.Upload, 1024),
		invoiceByETTN: make(map[string]*models.InvoiceRecord, 1024),
	}
}

func (ps *preloadState) getUpload(name string) (*models.Upload, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	u, ok := ps.uploadsByFile[name]
	return u, ok
}
func (ps *preloadState) putUpload(u *models.Upload) {
	ps.mu.Lock()
	ps.uploadsByFile[u.FileName] = u
	ps.mu.Unlock()
}
func (ps *preloadState) getInvoice(ettn string) (*models.InvoiceRecord, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	r, ok := ps.invoiceByETTN[ettn]
	return r, ok
}
func (ps *preloadState) putInvoice(r *models.InvoiceRecord) {
	if r.ETTN == "" {
		return
	}
	ps.mu.Lock()
	ps.invoiceByETTN[r.ETTN] = r
	ps.mu.Unlock()
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a directory of invoice images, creates Upload rows, runs OCR + field
// extraction to create/update InvoiceRecord rows, optional watch mode.
func main() {
	dirFlag := flag.String("dir", "public/invoices", "directory to scan for invoice images")
	userID := flag.Uint("user-id", 0, "User ID to assign uploads to (if omitted attempts admin user)")
	dryRun := flag.Bool("dry-run", false, "Skip all DB queries and writes; just list / optionally OCR (see --simulate-ocr)")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.BoolVar(&simulateOCR, "simulate-ocr", false, "In dry-run: actually run OCR to show extracted fields")
	flag.Parse()

	if *dryRun {
		// fast dry-run path (no DB)
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		files := listImageFiles(*dirFlag)
		log.Printf("Found %d candidate files", len(files))
		if simulateOCR {
			extractor := ocrsource.NewExtractor()
			parser := invoice.NewParser(nil)
			for _, f := range files {
				frags, err := extractor.Fragments(filepath.Join(*dirFlag, f))
				if err != nil {
					logV("OCR fail %s: %v", f, err)
					continue
				}
				inv := parser.Parse(frags)
				amt := 0.0
				if inv.TotalAmount != nil {
					amt = *inv.TotalAmount
				}
				logV("OCR %s ettn=%s no=%s supplier=%q amount=%.2f conf=%.2f", f, inv.ETTN, inv.InvoiceNumber, inv.SupplierName, amt, inv.Confidence())
			}
		}
		return
	}

	db = mustInitDBFromEnv()
	user := resolveUser(*userID)
	// preload all uploads & invoice records
	ps := preloadAll(user)
	log.Printf("Preloaded: uploads=%d invoices=%d", len(ps.uploadsByFile), len(ps.invoiceByETTN))

	// gather initial file list
	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, user, ps, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, user, ps, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// preloadAll fetches existing uploads and invoice records to minimize per-file queries.
func preloadAll(user models.User) *preloadState {
	ps := newPreloadState()
	var ups []models.Upload
	if err := db.Where("user_id = ?", user.ID).Find(&ups).Error; err == nil {
		for i := range ups {
			u := ups[i]
			ps.uploadsByFile[u.FileName] = &u
		}
	}
	var recs []models.InvoiceRecord
	if err := db.Where("user_id = ? AND ettn <> ''", user.ID).Find(&recs).Error; err == nil {
		for i := range recs {
			r := recs[i]
			ps.invoiceByETTN[r.ETTN] = &r
		}
	}
	return ps
}

// resolveUser finds the user either by explicit id or by admin username.
func resolveUser(id uint) models.User {
	var u models.User
	if id != 0 {
		if err := db.First(&u, id).Error; err != nil {
			log.Fatalf("failed to find user id %d: %v", id, err)
		}
		return u
	}
	if err := db.Where("username = ?", "admin").First(&u).Error; err != nil {
		log.Fatalf("no --user-id provided and admin user not found: %v", err)
	}
	return u
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func watchDirectory(dir string, user models.User, ps *preloadState, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	// Use worker pool for watch events too
	go runWorkerPool(dir, user, ps, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

func isSupportedExt(name string) bool {
	// ignore OCR-generated temp files to avoid recursive processing
	if strings.Contains(name, ".ocr.") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

// worker pool orchestrator. Each worker gets its own extractor/parser since
// the tesseract client is not safe for concurrent use.
func runWorkerPool(dir string, user models.User, ps *preloadState, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			extractor := ocrsource.NewExtractor()
			parser := invoice.NewParser(nil)
			for name := range fileCh {
				processSingleFile(dir, name, user, ps, extractor, parser)
			}
		}()
	}
	// feed initial
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		// also relay from extra channels if provided
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// kurusFromTL converts a TL amount to kuruş for storage.
func kurusFromTL(amount *float64) *int64 {
	if amount == nil {
		return nil
	}
	v := int64(math.Round(*amount * 100))
	return &v
}

// processSingleFile processes a single filename using preloaded maps & minimal queries.
func processSingleFile(dir, name string, user models.User, ps *preloadState, extractor *ocrsource.Extractor, parser *invoice.Parser) {
	storePath := filepath.ToSlash(filepath.Join("public", filepath.Base(dir), name))
	filePath := filepath.Join(dir, name)

	up, upExists := ps.getUpload(name)
	if upExists && up.InvoiceID != nil { // already parsed and linked
		logV("SKIP upload already linked %s", name)
		return
	}

	// If upload doesn't exist, create it (DB write)
	if !upExists {
		newUp := models.Upload{UserID: user.ID, FileName: name, StorePath: storePath}
		if ct := mimeFromExt(name); ct != "" {
			newUp.ContentType = ct
		}
		if err := db.Create(&newUp).Error; err != nil {
			if isUniqueConstraintError(err) { // race: someone else created
				if err2 := db.Where("store_path = ?", storePath).First(&newUp).Error; err2 != nil {
					log.Printf("WARN fetch after race failed %s: %v", storePath, err2)
					return
				}
			} else {
				log.Printf("ERROR create upload %s: %v", storePath, err)
				return
			}
		}
		ps.putUpload(&newUp)
		up = &newUp
		log.Printf("NEW upload id=%d file=%s", newUp.ID, name)
	}

	// Fill missing content type cheaply
	if up.ContentType == "" {
		if ct := mimeFromExt(name); ct != "" {
			up.ContentType = ct
			_ = db.Save(up).Error
		}
	}

	frags, err := extractor.Fragments(filePath)
	if err != nil {
		logV("OCR fail %s: %v", name, err)
		up.Failed = true
		up.FailedReason = err.Error()
		_ = db.Save(up).Error
		return
	}
	inv := parser.Parse(frags)
	if inv.Confidence() <= 0 {
		logV("no fields extracted %s", name)
		return
	}

	// ETTN dedup: link to the existing record when this document was seen before
	if inv.ETTN != "" {
		if existing, ok := ps.getInvoice(inv.ETTN); ok {
			if up.InvoiceID == nil {
				up.InvoiceID = &existing.ID
				_ = db.Save(up).Error
			}
			logV("SKIP invoice exists ettn=%s file=%s", inv.ETTN, name)
			return
		}
	}

	rec := models.InvoiceRecord{
		UserID:       user.ID,
		ETTN:         inv.ETTN,
		Number:       inv.InvoiceNumber,
		IssueDate:    inv.Date,
		TotalAmount:  kurusFromTL(inv.TotalAmount),
		SupplierName: inv.SupplierName,
		BuyerName:    inv.BuyerName,
		Confidence:   inv.Confidence(),
		AutoAccepted: inv.AutoAccepted(),
		Verified:     inv.Verification != nil && inv.Verification.IsMatch,
		RawText:      invoice.NormalizeLines(joinFragments(frags)),
	}
	if err := db.Create(&rec).Error; err != nil {
		if isUniqueConstraintError(err) { // fetch existing
			var existing models.InvoiceRecord
			if err2 := db.Where("user_id = ? AND ettn = ?", user.ID, inv.ETTN).First(&existing).Error; err2 == nil {
				ps.putInvoice(&existing)
				if up.InvoiceID == nil {
					up.InvoiceID = &existing.ID
					_ = db.Save(up).Error
				}
			}
		} else {
			log.Printf("ERROR create invoice %s: %v", name, err)
		}
		return
	}
	ps.putInvoice(&rec)
	if up.InvoiceID == nil {
		up.InvoiceID = &rec.ID
		_ = db.Save(up).Error
	}
	up.Failed = false
	up.FailedReason = ""
	_ = db.Save(up).Error
	log.Printf("INVOICE ettn=%s supplier=%q conf=%.2f file=%s upload=%d", rec.ETTN, rec.SupplierName, rec.Confidence, name, up.ID)
	// Move the processed file out of the inbox so new images are processed only once
	if err := moveToProcessed(filepath.Join(dir, name), name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	} else {
		logV("moved processed %s to public/processed", name)
	}
}

func joinFragments(frags []invoice.TextBlock) string {
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, "\n")
}

// sniffContentType reads first 512 bytes and returns MIME type.
func sniffContentType(path string) string { // fallback only
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n == 0 {
		return ""
	}
	return http.DetectContentType(buf[:n])
}

func mimeFromExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := extMime[ext]; ok {
		return m
	}
	return "" // sniff later if needed
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}

// moveToProcessed moves a file from the inbox to public/processed/<name>.
// It attempts an atomic rename and falls back to copy+remove when necessary.
func moveToProcessed(srcFullPath, name string) error {
	const maxBytes = 1_000_000 // 1 MB budget
	processedDir := filepath.Join("public", "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)

	fi, err := os.Stat(srcFullPath)
	if err != nil {
		return err
	}
	// Fast path: already small enough -> attempt rename/copy
	if fi.Size() <= maxBytes {
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	// Need compression / resizing
	img, err := imaging.Open(srcFullPath)
	if err != nil { // fallback to raw move if cannot decode
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	// Estimate scale factor based on sqrt(max/current) (size roughly scales with area)
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	if scale > 0.95 { // still enforce some small reduction to help container formats
		scale = 0.95
	}
	if scale < 0.1 { // avoid absurd downscale
		scale = 0.1
	}
	if scale < 1 {
		w := img.Bounds().Dx()
		h := img.Bounds().Dy()
		newW := int(math.Max(1, math.Round(float64(w)*scale)))
		newH := int(math.Max(1, math.Round(float64(h)*scale)))
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	}
	// Save to dst (overwrite if exists)
	if err := imaging.Save(img, dst); err != nil {
		// fallback to original move
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	// Remove original after successful save
	_ = os.Remove(srcFullPath)
	// If still > maxBytes, try one more uniform 80% scale pass
	if fi2, err2 := os.Stat(dst); err2 == nil && fi2.Size() > maxBytes {
		img2, errOpen2 := imaging.Open(dst)
		if errOpen2 == nil {
			img2 = imaging.Resize(img2, int(float64(img2.Bounds().Dx())*0.8), 0, imaging.Lanczos)
			_ = imaging.Save(img2, dst)
		}
	}
	return nil
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	_ = out.Close()
	if err := os.Remove(src); err != nil {
		return err
	}
	return nil
}
