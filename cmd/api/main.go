package main

// @title gptbot API
// @version 1.0
// @description Chat bot relaying Telegram and LINE messages to an LM Studio server.
// @description Exposes the platform webhooks and a read-only view of user sessions.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:9089
// @BasePath /
// @schemes http
import (
	_ "github.com/cassiel99/gptbot/docs"
	protocol "github.com/cassiel99/gptbot/protocal"

	_ "github.com/arsmn/fiber-swagger/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	err := protocol.ServeHTTP()
	if err != nil {
		logrus.Println(err)
	}
}
