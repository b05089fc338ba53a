package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List notifications
// @Description Own notifications newest first; ?unread=1 narrows to unread
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query int false "Only unread when set to 1"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size, 100 maximum"
// @Success 200 {object} models.Page
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	params := parsePageParams(c, defaultPageSize, maxPageSize)
	unreadOnly := c.Query("unread") == "1" || c.Query("unread") == "true"

	notifications, count, err := s.notificationService.List(ctx, userID, unreadOnly, params.PageSize, params.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(s.buildPage(c, count, params, notifications))
}

// GetUnreadCount handles GET /api/notifications/unread-count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{count=int}
// @Router /notifications/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	count, err := s.notificationService.UnreadCount(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark a notification read
// @Description Only the recipient may mark their notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(ctx, id, userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,marked=int}
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	marked, err := s.notificationService.MarkAllRead(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "marked": marked})
}

// GetFeatureFlags handles GET /api/admin/flags
// @Summary Feature flag snapshot
// @Description Staff-only view of every configured flag as evaluated for the caller
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{flags=map[string]bool,raw=map[string]string}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	return c.JSON(fiber.Map{
		"flags": s.featureFlags.Snapshot(userID),
		"raw":   s.featureFlags.Raw(),
	})
}
