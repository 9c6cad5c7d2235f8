package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// failTrigger makes the mock answer like a provider outage
const failTrigger = "__fail__"

func main() {
	port := flag.String("port", "8001", "Port to run the server on")
	flag.Parse()

	if err := newRouter().Run(":" + *port); err != nil {
		log.Fatal(err)
	}
}

func newRouter() *gin.Engine {
	r := gin.Default()
	r.POST("/v1/chat/completions", completions)
	return r
}

type mockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mockRequest struct {
	Model    string        `json:"model" binding:"required"`
	Messages []mockMessage `json:"messages" binding:"required,min=1"`
}

func completions(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"message": "You didn't provide an API key.",
			"type":    "invalid_request_error",
		}})
		return
	}

	var req mockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"message": err.Error(),
			"type":    "invalid_request_error",
		}})
		return
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Content == failTrigger {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
			"message": "The server is overloaded or not ready yet.",
			"type":    "server_error",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": 0,
		"model":   req.Model,
		"choices": []gin.H{
			{
				"index": 0,
				"message": gin.H{
					"role":    "assistant",
					"content": mockReply(req.Messages),
				},
				"finish_reason": "stop",
			},
		},
	})
}

func mockReply(messages []mockMessage) string {
	history := 0
	for _, m := range messages[:len(messages)-1] {
		if m.Role != "system" {
			history++
		}
	}
	return fmt.Sprintf("Mock reply to %q with %d prior turns.", messages[len(messages)-1].Content, history)
}
