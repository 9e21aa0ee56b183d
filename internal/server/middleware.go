package server

import (
	"github.com/labstack/echo/v4"

	pkgmdw "github.com/nguyentranbao-ct/hds-chat/internal/server/middleware"
)

const apiPrefix = "/api/v1"

// logRequestConfig leaves out the translation table, which is large and static.
func logRequestConfig(log pkgmdw.Logger) pkgmdw.LogRequestConfig {
	conf := pkgmdw.DefaultLogRequestConfig
	conf.Logger = log
	conf.ResponseBody = func(c echo.Context) bool {
		return c.Request().URL.Path != apiPrefix+"/i18n"
	}
	return conf
}
