package bot

import (
	"bronebot/app/config"
	"fmt"

	"github.com/elliotchance/pie/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const floorsPerRow = 4

func locationKeyboard(locations []config.Location) tgbotapi.InlineKeyboardMarkup {
	rows := pie.Map(locations, func(location config.Location) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(location.Name, "findloc:"+location.ID),
		)
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func floorKeyboard(floors []int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for _, floor := range floors {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d", floor),
			fmt.Sprintf("findfloor:%d", floor),
		))

		if len(row) == floorsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Любой этаж", "findfloor:any"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func bookingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить бронь", "cancel_booking"),
		),
	)
}

func resultKeyboard(roomCount int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for i := 0; i < roomCount; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("ℹ️ %d", i+1),
			fmt.Sprintf("detail:%d", i),
		))

		if len(row) == floorsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отменить бронь", "cancel_booking"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
