package server

import (
	"sync"

	"grateful-roasted/internal/game"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := game.ValidateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("gamename", func(fl validator.FieldLevel) bool {
			_, err := game.ValidateGameName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("content", func(fl validator.FieldLevel) bool {
			_, err := game.ValidateContent(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("emoji", func(fl validator.FieldLevel) bool {
			_, err := game.ValidateEmoji(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("code", func(fl validator.FieldLevel) bool {
			return game.ValidCode(fl.Field().String())
		})
	})
}

type createGameRequest struct {
	Name     string         `json:"name" binding:"required,gamename"`
	GameMode string         `json:"game_mode" binding:"required,oneof=gratitude roast both"`
	Settings *game.Settings `json:"settings"`
}

var createGameMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"gamename": "game name must be 1 to 80 characters",
	},
	"GameMode": {
		"required": "game_mode is required",
		"oneof":    "game_mode must be gratitude, roast or both",
	},
}

type codeURI struct {
	Code string `uri:"code" binding:"required,code"`
}

var codeMessages = bindMessages{
	"Code": {
		"code": "game codes are 6 letters or digits",
	},
}

type joinRequest struct {
	Name string `json:"name" binding:"required,name"`
}

var joinMessages = bindMessages{
	"Name": {
		"required": "please enter your name",
		"name":     "name must be 1 to 20 characters",
	},
}

type submissionRequest struct {
	Type           string  `json:"type" binding:"required,oneof=gratitude roast"`
	Content        string  `json:"content" binding:"required,content"`
	TargetPlayerID *string `json:"target_player_id"`
}

var submissionMessages = bindMessages{
	"Type": {
		"required": "type is required",
		"oneof":    "type must be gratitude or roast",
	},
	"Content": {
		"required": "content is required",
		"content":  "content must be 1 to 500 characters",
	},
}

type voteRequest struct {
	SubmissionID    string  `json:"submission_id" binding:"required"`
	GuessedPlayerID *string `json:"guessed_player_id"`
}

var voteMessages = bindMessages{
	"SubmissionID": {
		"required": "submission_id is required",
	},
}

type reactionRequest struct {
	SubmissionID string `json:"submission_id" binding:"required"`
	Emoji        string `json:"emoji" binding:"required,emoji"`
}

var reactionMessages = bindMessages{
	"SubmissionID": {
		"required": "submission_id is required",
	},
	"Emoji": {
		"required": "emoji is required",
		"emoji":    "emoji must be a single reaction",
	},
}
