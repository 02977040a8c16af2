package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"quick-chat/domain"
	"quick-chat/services"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

const (
	mainMenu = "Choose an option:\n" +
		"1) Send Messages\n" +
		"2) Show Recently Sent Messages\n" +
		"3) Quit"
	sentMenu = "Choose a report option:\n" +
		"1) Display sender and recipient of all sent messages\n" +
		"2) Display the longest sent message\n" +
		"3) Search for a message ID\n" +
		"4) Search messages by recipient\n" +
		"5) Delete a message using message hash\n" +
		"6) Display full sent messages report\n" +
		"7) Return to Main Menu\n" +
		"8) Search sent message text\n" +
		"9) Browse archived sent messages"
	actionMenu = "Choose an action for the message:\n" +
		"1) Send Message\n" +
		"2) Disregard Message\n" +
		"3) Store Message to send later"
)

// Console is the line-oriented front end. End of input behaves like a cancel.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	service services.IMessageService
}

func NewConsole(in io.Reader, out io.Writer, service services.IMessageService) *Console {
	return &Console{in: bufio.NewReader(in), out: out, service: service}
}

func (c *Console) Run(ctx context.Context) {
	for ctx.Err() == nil {
		option, ok := c.prompt(mainMenu)
		if !ok {
			return
		}
		switch option {
		case "1":
			c.sendMessages(ctx)
		case "2":
			c.sentMessagesMenu(ctx)
		case "3":
			return
		default:
			c.fail("Invalid option. Please select 1, 2, or 3.")
		}
	}
}

func (c *Console) sendMessages(ctx context.Context) {
	input, ok := c.prompt("Enter number of messages to send:")
	if !ok {
		return
	}
	count, err := c.service.ParseCount(input)
	if err != nil {
		c.fail(err.Error())
		return
	}

	for i := 1; i <= count; i++ {
		recipient, ok := c.prompt(fmt.Sprintf("Enter recipient %d's number (include international code, e.g. +27831234567):", i))
		if !ok {
			return
		}
		if !domain.IsValidRecipient(recipient) {
			c.fail("Invalid cell phone number.\nMust start with +27 and be followed by exactly 9 digits.\nExample: +27831234567")
			i--
			continue
		}
		body, ok := c.promptLine(fmt.Sprintf("Enter message (max %d characters):", domain.MaxBodyLength))
		if !ok {
			return
		}

		message, err := c.service.Compose(domain.ComposeCommand{SequenceNumber: i, Recipient: recipient, Body: body})
		if err != nil {
			c.fail(err.Error())
			i--
			continue
		}
		if ready, _ := message.CheckLength(); !ready {
			c.fail(message.LengthReport())
			i--
			continue
		}
		if !c.dispatch(ctx, message) {
			return
		}
	}
	c.info(fmt.Sprintf("Total messages sent: %d", c.service.TotalSent()))
}

// dispatch asks where the message goes; it returns false when input ended.
func (c *Console) dispatch(ctx context.Context, message domain.Message) bool {
	choice, ok := c.prompt(actionMenu)
	if !ok {
		return false
	}
	var action domain.Action
	switch choice {
	case "1":
		action = domain.ActionSend
	case "2":
		action = domain.ActionDiscard
	case "3":
		action = domain.ActionStore
	default:
		c.fail("No valid option selected. Message disregarded.")
		action = domain.ActionDiscard
	}

	outcome, err := c.service.Dispatch(ctx, message, action)
	if err != nil {
		c.fail(err.Error())
		return true
	}
	switch outcome.Action {
	case domain.ActionSend:
		c.success("Message sent.\n\n" + message.Render())
	case domain.ActionDiscard:
		c.success("Message disregarded and not saved")
	case domain.ActionStore:
		c.success(fmt.Sprintf("Message stored to file:\n%s\n\n"+
			"Message ID: %s\nMessage Number: %d\nRecipient: %s\nMessage: %s\nMessage Hash: %s",
			outcome.Path, message.ID(), message.SequenceNumber(), message.Recipient(), message.Body(), message.Hash()))
	}
	return true
}

func (c *Console) sentMessagesMenu(ctx context.Context) {
	for ctx.Err() == nil {
		option, ok := c.prompt(sentMenu)
		if !ok || option == "7" {
			return
		}
		switch option {
		case "1":
			c.displaySenderAndRecipient()
		case "2":
			c.displayLongest()
		case "3":
			c.searchByID()
		case "4":
			c.searchByRecipient()
		case "5":
			c.deleteByHash()
		case "6":
			c.displayFullReport()
		case "8":
			c.searchText(ctx)
		case "9":
			c.browseHistory()
		default:
			c.fail("Invalid option, please choose 1-9.")
		}
	}
}

func (c *Console) displaySenderAndRecipient() {
	routes := c.service.SentRecipients()
	if len(routes) == 0 {
		c.info("No sent messages to display.")
		return
	}
	c.info("Sender and Recipient of Sent Messages:")
	table := c.newTable("Sender", "Recipient")
	for _, r := range routes {
		table.Append([]string{r.Sender, r.Recipient})
	}
	table.Render()
}

func (c *Console) displayLongest() {
	message, err := c.service.Longest()
	if err != nil {
		c.info("No sent messages available.")
		return
	}
	c.info("Longest sent message:\n" + message.Body())
}

func (c *Console) searchByID() {
	id, ok := c.prompt("Enter Message ID to search:")
	if !ok || id == "" {
		return
	}
	message, err := c.service.FindByID(id)
	if err != nil {
		c.fail("Message ID not found.")
		return
	}
	c.info("Message found:\nRecipient: " + message.Recipient() + "\nMessage: " + message.Body())
}

func (c *Console) searchByRecipient() {
	recipient, ok := c.prompt("Enter recipient number to search messages:")
	if !ok || recipient == "" {
		return
	}
	bodies := c.service.FindByRecipient(recipient)
	if len(bodies) == 0 {
		c.info("No messages found for recipient: " + recipient)
		return
	}
	var sb strings.Builder
	sb.WriteString("Messages for recipient " + recipient + ":")
	for _, body := range bodies {
		sb.WriteString("\n- " + body)
	}
	c.info(sb.String())
}

func (c *Console) deleteByHash() {
	hash, ok := c.prompt("Enter Message Hash to delete:")
	if !ok || hash == "" {
		return
	}
	if _, err := c.service.DeleteByHash(hash); err != nil {
		c.fail("Message hash not found.")
		return
	}
	c.success("Message deleted successfully.")
}

func (c *Console) displayFullReport() {
	report := c.service.FullReport()
	if len(report) == 0 {
		c.info("No sent messages to report.")
		return
	}
	c.info("Full Sent Messages Report:")
	table := c.newTable("Message ID", "Message Hash", "Recipient", "Message")
	for _, rendered := range report {
		table.Append(reportRow(rendered))
	}
	table.Render()
}

// reportRow splits a rendered message back into its labelled values.
func reportRow(rendered string) []string {
	lines := strings.SplitN(rendered, "\n", 4)
	row := make([]string, 4)
	for i, line := range lines {
		if _, value, found := strings.Cut(line, ": "); found {
			row[i] = value
		}
	}
	return row
}

func (c *Console) searchText(ctx context.Context) {
	input, ok := c.prompt("Enter words to search (optional: --recipient <number> --limit <n>):")
	if !ok || input == "" {
		return
	}
	messages, err := c.service.Search(ctx, input)
	if err != nil {
		c.fail(err.Error())
		return
	}
	if len(messages) == 0 {
		c.info("No sent messages match: " + input)
		return
	}
	table := c.newTable("Message ID", "Recipient", "Message")
	for _, m := range messages {
		table.Append([]string{m.ID(), m.Recipient(), m.Body()})
	}
	table.Render()
}

func (c *Console) browseHistory() {
	var cursor *string
	for {
		page, next, err := c.service.History(cursor)
		if err != nil {
			c.fail(err.Error())
			return
		}
		if len(page) == 0 {
			c.info("No more archived messages.")
			return
		}
		table := c.newTable("Sent At", "Message ID", "Recipient", "Message", "Session")
		for _, archived := range page {
			table.Append([]string{
				archived.At.Format("2006-01-02 15:04:05"),
				archived.Record.ID,
				archived.Record.Recipient,
				archived.Record.Body,
				archived.SessionID.String()[:8],
			})
		}
		table.Render()

		answer, ok := c.prompt("Show older messages? (y/n)")
		if !ok || !strings.EqualFold(answer, "y") {
			return
		}
		cursor = next
	}
}

func (c *Console) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// prompt reads a menu choice, count or identifier with surrounding blanks removed.
func (c *Console) prompt(question string) (string, bool) {
	line, ok := c.promptLine(question)
	return strings.TrimSpace(line), ok
}

// promptLine reads one line as typed, whatever its length.
func (c *Console) promptLine(question string) (string, bool) {
	fmt.Fprintln(c.out, color.Cyan.Sprint(question))
	fmt.Fprint(c.out, "> ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), true
}

func (c *Console) info(text string) {
	fmt.Fprintln(c.out, text)
}

func (c *Console) success(text string) {
	fmt.Fprintln(c.out, color.Green.Sprint(text))
}

func (c *Console) fail(text string) {
	fmt.Fprintln(c.out, color.Red.Sprint(text))
}
