package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/http/response"
	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
)

// videoCategoryDirs maps a URL category to its assets subdirectory.
// "sqaure_housing" keeps the directory name clients already link to.
var videoCategoryDirs = map[string]string{
	"housing":         "housing",
	"shaft":           "shaft",
	"oval_housing":    "oval_housing",
	"sqaure_housing":  "sqaure_housing",
	"angular_housing": "angular_housing",
}

var housingVideoTypes = []string{"oval", "sqaure", "angular"}

// VideoHandler serves instructional videos out of the assets directory.
// Streaming goes through http.ServeFile, which supplies byte-range
// semantics (206/416) and HEAD handling.
type VideoHandler struct {
	assetsDir string
	log       *logger.Logger
	debug     bool
}

func NewVideoHandler(assetsDir string, baseLog *logger.Logger, debug bool) *VideoHandler {
	return &VideoHandler{
		assetsDir: assetsDir,
		log:       baseLog.With("handler", "VideoHandler"),
		debug:     debug,
	}
}

// GET /housing_types
func (vh *VideoHandler) HousingTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"housing_types": housingVideoTypes})
}

// GET /video/list/:category
func (vh *VideoHandler) ListVideos(c *gin.Context) {
	files, err := vh.listCategoryFiles(c.Param("category"))
	if err != nil {
		response.Fail(c, err, vh.debug)
		return
	}
	c.JSON(http.StatusOK, files)
}

// GET /video/housing_types/:housing_type
func (vh *VideoHandler) ListHousingTypeVideos(c *gin.Context) {
	housingType := c.Param("housing_type")
	valid := false
	for _, t := range housingVideoTypes {
		if housingType == t {
			valid = true
			break
		}
	}
	if !valid {
		response.Fail(c, apierr.BadRequest("Invalid housing type"), vh.debug)
		return
	}
	files, err := vh.listCategoryFiles(housingType + "_housing")
	if err != nil {
		response.Fail(c, err, vh.debug)
		return
	}
	c.JSON(http.StatusOK, files)
}

// GET|HEAD /video/:category/:filename
func (vh *VideoHandler) StreamVideo(c *gin.Context) {
	folder, ok := videoCategoryDirs[c.Param("category")]
	if !ok {
		response.Fail(c, apierr.NotFound("Not Found"), vh.debug)
		return
	}
	filename := c.Param("filename")
	if filename != filepath.Base(filename) || filename == "." || filename == ".." {
		response.Fail(c, apierr.NotFound("File not found"), vh.debug)
		return
	}
	path := filepath.Join(vh.assetsDir, folder, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		response.Fail(c, apierr.NotFound("File not found"), vh.debug)
		return
	}
	http.ServeFile(c.Writer, c.Request, path)
}

// GET /debug/paths
func (vh *VideoHandler) DebugPaths(c *gin.Context) {
	dirs := make(map[string]string, len(videoCategoryDirs))
	exists := make(map[string]bool, len(videoCategoryDirs))
	for category, folder := range videoCategoryDirs {
		path := filepath.Join(vh.assetsDir, folder)
		dirs[category] = path
		info, err := os.Stat(path)
		exists[category] = err == nil && info.IsDir()
	}
	c.JSON(http.StatusOK, gin.H{
		"assets_dir": vh.assetsDir,
		"video_dirs": dirs,
		"dirs_exist": exists,
	})
}

func (vh *VideoHandler) listCategoryFiles(category string) ([]string, error) {
	folder, ok := videoCategoryDirs[category]
	if !ok {
		return nil, apierr.NotFound("Not Found")
	}
	entries, err := os.ReadDir(filepath.Join(vh.assetsDir, folder))
	if err != nil {
		// A missing category directory is an empty listing, not an error.
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	files := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
