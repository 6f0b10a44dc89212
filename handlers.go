package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/bilalelmas/invoscan/models"
	"github.com/bilalelmas/invoscan/pkg/invoice"
	"github.com/bilalelmas/invoscan/pkg/ocrsource"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/invoices/parse", parseInvoiceHandler)
	authGroup.GET("/invoices", listInvoicesHandler)
	authGroup.GET("/invoices/summary", invoiceSummaryHandler)
	authGroup.GET("/invoices/:id", getInvoiceHandler)
	authGroup.POST("/uploads", uploadFileHandler)
	authGroup.GET("/uploads", listUploadsHandler)
	authGroup.GET("/uploads/:id", getUploadHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	username := usernameVal.(string)
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// kurusFromTL converts a TL amount to kuruş for storage.
func kurusFromTL(amount *float64) *int64 {
	if amount == nil {
		return nil
	}
	v := int64(math.Round(*amount * 100))
	return &v
}

// upsertInvoiceRecord persists a parsed invoice for the user. A non-empty
// ETTN is the dedup key: re-parsing the same document updates the existing
// row instead of creating a second one.
func upsertInvoiceRecord(userID uint, inv *invoice.Invoice, rawText string) (*models.InvoiceRecord, error) {
	rec := models.InvoiceRecord{
		UserID:       userID,
		ETTN:         inv.ETTN,
		Number:       inv.InvoiceNumber,
		IssueDate:    inv.Date,
		TotalAmount:  kurusFromTL(inv.TotalAmount),
		SupplierName: inv.SupplierName,
		BuyerName:    inv.BuyerName,
		Confidence:   inv.Confidence(),
		AutoAccepted: inv.AutoAccepted(),
		Verified:     inv.Verification != nil && inv.Verification.IsMatch,
		RawText:      rawText,
	}
	if inv.ETTN != "" {
		var existing models.InvoiceRecord
		if err := db.Where("user_id = ? AND ettn = ?", userID, inv.ETTN).First(&existing).Error; err == nil {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			if err := db.Save(&rec).Error; err != nil {
				return nil, err
			}
			return &rec, nil
		}
	}
	if err := db.Create(&rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			// concurrent insert of the same ETTN; fetch and return it
			var existing models.InvoiceRecord
			if err2 := db.Where("user_id = ? AND ettn = ?", userID, inv.ETTN).First(&existing).Error; err2 == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &rec, nil
}

// parseInvoiceHandler extracts invoice fields from caller-supplied text
// fragments (or flat text) without persisting anything. Useful for clients
// that already ran OCR or pulled text out of a PDF.
func parseInvoiceHandler(c *gin.Context) {
	if _, ok := getUserFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Fragments []invoice.TextBlock `json:"fragments"`
		Text      string              `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Fragments) == 0 && req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fragments or text required"})
		return
	}
	parser := invoice.NewParser(nil)
	var inv *invoice.Invoice
	if len(req.Fragments) > 0 {
		inv = parser.Parse(req.Fragments)
	} else {
		inv = parser.ParseText(req.Text)
	}
	c.JSON(http.StatusOK, gin.H{
		"invoice":      inv,
		"confidence":   inv.Confidence(),
		"autoAccepted": inv.AutoAccepted(),
	})
}

// listInvoicesHandler lists recent invoice records for the authenticated user (admin sees all)
func listInvoicesHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.InvoiceRecord
	q := db.Model(&models.InvoiceRecord{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func getInvoiceHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id := c.Param("id")
	var rec models.InvoiceRecord
	if err := db.First(&rec, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && rec.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// invoiceSummaryHandler returns total amounts (kuruş) grouped by issue month
func invoiceSummaryHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	type Result struct {
		Month string
		Total int64
		Count int64
	}
	var results []Result
	q := db.Model(&models.InvoiceRecord{}).Where("issue_date IS NOT NULL AND total_amount IS NOT NULL")
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	// Use to_char for Postgres to group by YYYY-MM
	rows, err := q.Select("to_char(issue_date, 'YYYY-MM') as month, sum(total_amount) as total, count(*) as count").Group("month").Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	defer rows.Close()
	for rows.Next() {
		var r Result
		rows.Scan(&r.Month, &r.Total, &r.Count)
		results = append(results, r)
	}
	c.JSON(http.StatusOK, results)
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := RegisterUser(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	// Generate JWT token. Resolve role name from RoleID (we only store role_id now).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// create refresh token
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	// generate random 32-byte token (hex)
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	// hash for storage
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	// load user
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	// create access token
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// uploadFileHandler handles multipart invoice image upload for the current user.
// The image is saved, OCR'd and parsed in one request; the resulting invoice
// record is linked to the upload. OCR failure keeps the upload row and marks
// it failed instead of erroring out the whole request.
func uploadFileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	folder := c.PostForm("folder")
	if folder == "" {
		folder = "default"
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	// simple content type sniff via header
	ct := file.Header.Get("Content-Type")
	baseDir := uploadBaseDir()
	relPath := folder + "/" + file.Filename
	fullPath := baseDir + "/" + relPath
	if err := os.MkdirAll(baseDir+"/"+folder, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	// Build store path (public exposure path). Assume files served from 'public/' prefix.
	storePath := "public/" + relPath

	// If an upload record for this user+filename already exists, reuse it
	// (re-uploading retries OCR on previously failed files).
	var up models.Upload
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, file.Filename).First(&up).Error; err != nil {
		up = models.Upload{UserID: user.ID, FileName: file.Filename, StorePath: storePath, ContentType: ct}
		if err := db.Create(&up).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
			return
		}
	}

	extractor := ocrsource.NewExtractor()
	frags, err := extractor.Fragments(fullPath)
	if err != nil {
		up.Failed = true
		up.FailedReason = err.Error()
		db.Save(&up)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"id": up.ID, "path": relPath, "error": "ocr failed", "reason": err.Error()})
		return
	}

	parser := invoice.NewParser(nil)
	inv := parser.Parse(frags)
	rawText := invoice.NormalizeLines(fragmentsText(frags))
	rec, err := upsertInvoiceRecord(user.ID, inv, rawText)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invoice save failed"})
		return
	}
	up.InvoiceID = &rec.ID
	up.Failed = false
	up.FailedReason = ""
	db.Save(&up)

	c.JSON(http.StatusOK, gin.H{
		"id":         up.ID,
		"path":       relPath,
		"store_path": storePath,
		"invoice_id": rec.ID,
		"invoice":    rec,
	})
}

// fragmentsText flattens fragments to newline-joined raw text for storage.
func fragmentsText(frags []invoice.TextBlock) string {
	out := ""
	for i, f := range frags {
		if i > 0 {
			out += "\n"
		}
		out += f.Text
	}
	return out
}

// listUploadsHandler returns uploads; admin sees all, user only own uploads.
func listUploadsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var uploads []models.Upload
	q := db.Model(&models.Upload{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&uploads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

// getUploadHandler returns single upload if admin or owner.
func getUploadHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id := c.Param("id")
	var up models.Upload
	if err := db.First(&up, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && up.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, up)
}
