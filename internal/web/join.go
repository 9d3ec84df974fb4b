package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// JoinPage is what the /join/{code} landing page shows. Error is set when
// the code cannot be joined.
type JoinPage struct {
	Code     string
	GameName string
	Mode     string
	Error    string
}

// Join renders the page a shared QR link opens: the game's name and a form
// posting to the join endpoint. The session token from the response is kept
// in localStorage.
func Join(page JoinPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		code := templ.EscapeString(page.Code)
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Grateful &amp; Roasted</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Grateful &amp; Roasted</span>
`)
		if page.Error != "" {
			b.WriteString(`        <h1>Can't join ` + code + `</h1>
        <p class="error">` + templ.EscapeString(page.Error) + `</p>
      </header>
    </main>
  </body>
</html>
`)
			_, err := io.WriteString(w, b.String())
			return err
		}
		b.WriteString(`        <h1>` + templ.EscapeString(page.GameName) + `</h1>
        <p>Game code <strong>` + code + `</strong> &middot; ` + templ.EscapeString(modeLabel(page.Mode)) + `</p>
      </header>

      <section class="panel">
        <form id="joinForm" class="join-form" data-code="` + code + `">
          <input name="name" placeholder="Your name" maxlength="20" autocomplete="name" required/>
          <button type="submit" class="primary">Join game</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>
    </main>

    <script>
      const joinForm = document.getElementById("joinForm");
      const joinResult = document.getElementById("joinResult");

      joinForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        joinResult.textContent = "Joining game...";
        const code = joinForm.dataset.code;
        const name = joinForm.elements.name.value.trim();
        const res = await fetch("/api/codes/" + encodeURIComponent(code) + "/join", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ name })
        });
        const data = await res.json();
        if (!res.ok) {
          joinResult.textContent = data.error || "Failed to join game.";
          return;
        }
        localStorage.setItem("grateful_roasted_session", data.session_token);
        localStorage.setItem("grateful_roasted_player_id", data.player.id);
        localStorage.setItem("grateful_roasted_game_id", data.game_id);
        joinResult.textContent = "You're in, " + data.player.name + "!";
      });
    </script>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func modeLabel(mode string) string {
	switch mode {
	case "gratitude":
		return "Gratitude"
	case "roast":
		return "Roast"
	default:
		return "Gratitude & Roast"
	}
}
