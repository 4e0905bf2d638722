package update

import (
	"github.com/sandeepkv93/routined/internal/views"
)

const helpMarkdown = `# routined

Alarms fire at their **HH:MM** on the listed repeat days (every day when none
are set). Only one alarm is shown at a time.

| key | action |
|---|---|
| d | dismiss the ringing alarm |
| c | complete the ringing alarm's task |
| space | toggle the selected task done |
| a | toggle the selected task's alarm |
| f | cycle the category filter |
| t | switch between 12h and 24h |
| / | open the command palette |

## commands

- ` + "`add <title> @HH:MM [days:Mon,Wed] [cat:morning] [-- description]`" + `
- ` + "`edit <id> [title] [@HH:MM] [days:..] [cat:..] [-- description]`" + `
- ` + "`complete [id]`" + `, ` + "`dismiss`" + `
- ` + "`alarm <id> on|off`" + `, ` + "`filter <category|all>`" + `, ` + "`delete <id>`" + `
`

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Markdown: helpMarkdown,
		KeysView: m.helpModel.FullHelpView(m.keys.FullHelp()),
	})
}
