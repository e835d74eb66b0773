package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"eduplatform/backend/files"
	"eduplatform/backend/utils"
)

type FilesController struct {
	Resolver *files.Resolver
	Log      *logrus.Logger
}

func NewFilesController(resolver *files.Resolver, log *logrus.Logger) *FilesController {
	return &FilesController{Resolver: resolver, Log: log}
}

// GetFileURL resolves an opaque file id to a download URL.
func (fc *FilesController) GetFileURL(c *fiber.Ctx) error {
	fileID := c.Params("fileId")

	url, err := fc.Resolver.ResolveURL(c.Context(), fileID)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			return utils.NotFound(c, "File not found")
		}
		fc.Log.WithError(err).WithField("file_id", fileID).Error("file resolution failed")
		return utils.InternalServerError(c, "Could not resolve file")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}
