package infra

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/spf13/viper"

	"github.com/pancudaniel7/address-relay-service/internal/adapter/http"
)

// InitHTTPServer builds the fiber app with go-json as its codec.
func InitHTTPServer() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:     viper.GetString("service.name"),
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
}

func InitRoutes(server *fiber.App, handlers *http.Handlers) {
	http.RegisterRoutes(server, handlers)
}
