package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kartcup/internal/config"
	"github.com/okian/kartcup/pkg/logger"
)

func init() {
	if err := logger.InitWith(io.Discard, "text"); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("KART_ADDR", ":8080")
			_ = os.Setenv("KART_FINALS_TARGETS__GP", "4")
			defer func() {
				_ = os.Unsetenv("KART_ADDR")
				_ = os.Unsetenv("KART_FINALS_TARGETS__GP")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FinalsTargets["gp"], convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the handler is built on the memory store", func() {
			cfg := config.New()
			cfg.FinalsTargets["bm"] = 3
			h, err := newHandler(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then health and configured rules are served", func() {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

				body := `{"seeds":["a","b","c","d","e","f","g","h"]}`
				rec = httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tournaments/t/bm/bracket", strings.NewReader(body)))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusCreated)
			})
		})

		convey.Convey("When postgres is selected with an unreachable database", func() {
			cfg := config.New()
			cfg.Store = config.StorePostgres
			cfg.DatabaseURL = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
			_, err := newHandler(context.Background(), cfg, logger.Get())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
