package server

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"time"

	"compass/internal/database/dto"
	"compass/internal/database/models"
	"compass/internal/database/repositories"
	"compass/internal/utils"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Post("/login", s.login)
	s.App.Post("/register", s.registerUser)
	s.App.Get("/health", s.healthHandler)
	// endpoint to monitor memory
	s.App.Get("/memory", func(c *fiber.Ctx) error {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		memoryInfo := fmt.Sprintf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
			bToMb(m.Alloc), bToMb(m.TotalAlloc), bToMb(m.Sys), m.NumGC)
		return c.SendString(memoryInfo)
	})

	s.App.Use(jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: s.jwtSecret},
	}))

	s.App.Post("/cards", s.createCard)
	s.App.Get("/cards/:ownerId", s.listCards)
	s.App.Get("/cards/:ownerId/:id", s.getSingleCard)
	s.App.Put("/cards/:ownerId/:id", s.updateCard)
	s.App.Delete("/cards/:ownerId/:id", s.deleteCard)
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(s.db.Health())
}

// tokenOwner pulls the authenticated owner id from the verified JWT.
func tokenOwner(c *fiber.Ctx) string {
	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	sub, _ := claims["sub"].(string)
	return sub
}

// validateCard checks the full card schema: required fields present, status a
// member of the closed enumeration, url well-formed.
func validateCard(card *models.Card) error {
	if card.ID == "" || card.OwnerID == "" {
		return errors.New("card id and ownerId are required")
	}
	if card.Company == "" || card.Role == "" || card.URL == "" {
		return errors.New("company, role and url are required")
	}
	if !card.Status.Valid() {
		return fmt.Errorf("invalid status %q", card.Status)
	}
	u, err := url.Parse(card.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("url is not well-formed")
	}
	return nil
}

func (s *FiberServer) login(c *fiber.Ctx) error {
	credentials := dto.LoginCredentials{}
	if err := c.BodyParser(&credentials); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if !s.logins.Allow(credentials.Email) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "too many login attempts, try again later",
		})
	}
	repo := repositories.NewUserRepository(s.db.DB())
	user, err := repo.GetByEmail(c.Context(), credentials.Email)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid email or password",
		})
	}
	if !utils.CheckPasswordHash(credentials.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid email or password",
		})
	}

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(time.Hour * 72).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to sign token",
		})
	}

	return c.JSON(fiber.Map{"token": t})
}

func (s *FiberServer) registerUser(c *fiber.Ctx) error {
	req := dto.SignupRequest{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email, name and a password of at least 8 characters are required",
		})
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to hash password",
		})
	}
	user := models.User{
		ID:       "usr_" + uuid.NewString(),
		Email:    req.Email,
		Name:     req.Name,
		Password: hash,
	}
	repo := repositories.NewUserRepository(s.db.DB())
	if err := repo.Create(c.Context(), &user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "created user successfully", "id": user.ID})
}

func (s *FiberServer) createCard(c *fiber.Ctx) error {
	card := models.Card{}
	if err := c.BodyParser(&card); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := validateCard(&card); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if card.OwnerID != tokenOwner(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you can only create your own cards",
		})
	}
	cardRepo := repositories.NewCardRepository(s.db.DB())
	if err := cardRepo.Put(c.Context(), &card); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create card",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

func (s *FiberServer) listCards(c *fiber.Ctx) error {
	ownerID := c.Params("ownerId")
	if ownerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ownerId path parameter is required",
		})
	}
	if ownerID != tokenOwner(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you can only list your own cards",
		})
	}
	cardRepo := repositories.NewCardRepository(s.db.DB())
	cards, err := cardRepo.ListByOwner(c.Context(), ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list cards",
		})
	}
	return c.JSON(cards)
}

func (s *FiberServer) getSingleCard(c *fiber.Ctx) error {
	ownerID := c.Params("ownerId")
	id := c.Params("id")
	if ownerID != tokenOwner(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you can only read your own cards",
		})
	}
	cardRepo := repositories.NewCardRepository(s.db.DB())
	card, err := cardRepo.Get(c.Context(), ownerID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "card not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get card",
		})
	}
	return c.JSON(card)
}

func (s *FiberServer) updateCard(c *fiber.Ctx) error {
	ownerID := c.Params("ownerId")
	id := c.Params("id")
	if ownerID != tokenOwner(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you can only update your own cards",
		})
	}
	card := models.Card{}
	if err := c.BodyParser(&card); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if card.OwnerID != ownerID || card.ID != id {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "card id or owner id mismatch in payload vs. path",
		})
	}
	if err := validateCard(&card); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	cardRepo := repositories.NewCardRepository(s.db.DB())
	err := cardRepo.Update(c.Context(), ownerID, id, &card)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "card not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update card",
		})
	}
	return c.Status(fiber.StatusOK).JSON(card)
}

func (s *FiberServer) deleteCard(c *fiber.Ctx) error {
	ownerID := c.Params("ownerId")
	id := c.Params("id")
	if ownerID != tokenOwner(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you can only delete your own cards",
		})
	}
	cardRepo := repositories.NewCardRepository(s.db.DB())
	err := cardRepo.Delete(c.Context(), ownerID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "card not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete card",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "id": id})
}
