package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/stealth"
)

// Patches what the evasion bundle leaves to the caller: a language list
// matching the locale, and a permissions query that agrees with
// Notification.permission.
const shimTemplate = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'languages', { get: () => %s });
	const query = window.navigator.permissions && window.navigator.permissions.query;
	if (query) {
		window.navigator.permissions.query = (parameters) =>
			parameters && parameters.name === 'notifications'
				? Promise.resolve({ state: Notification.permission })
				: query.call(window.navigator.permissions, parameters);
	}
})();`

func initScripts(languages []string) []string {
	encoded, err := json.Marshal(languages)
	if err != nil || len(languages) == 0 {
		encoded = []byte(`["en-US","en"]`)
	}
	return []string{stealth.JS, fmt.Sprintf(shimTemplate, encoded)}
}
