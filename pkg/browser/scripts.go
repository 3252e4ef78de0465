package browser

// ElementAttribute tags interactive elements so actions can address them by id.
const ElementAttribute = "data-serpwalk-id"

const scrollScript = `(dy) => { window.scrollBy({ top: dy * window.innerHeight, behavior: 'smooth' }); return window.scrollY; }`

const scrollStateScript = `() => JSON.stringify({ y: Math.round(window.scrollY), height: Math.round(document.documentElement.scrollHeight), viewport: window.innerHeight })`

// observeScript tags visible interactive elements with ElementAttribute and
// returns them as a JSON array. Links lose target=_blank so navigation stays
// in the observed tab.
const observeScript = `(maxItems) => {
    document.querySelectorAll('[data-serpwalk-id]').forEach(el => el.removeAttribute('data-serpwalk-id'));

    const items = [];
    const seen = new Set();
    let nextId = 1;

    function isVisible(el) {
        const rect = el.getBoundingClientRect();
        if (rect.width < 1 || rect.height < 1) return false;
        const style = window.getComputedStyle(el);
        return style.visibility !== 'hidden' && style.display !== 'none' && style.opacity !== '0';
    }

    function inViewport(el) {
        const rect = el.getBoundingClientRect();
        return rect.bottom > 0 && rect.top < window.innerHeight;
    }

    function label(el, limit) {
        const t = el.innerText || el.getAttribute('aria-label') || el.getAttribute('title') ||
            el.getAttribute('placeholder') || el.getAttribute('alt') || el.value || '';
        return String(t).replace(/\s+/g, ' ').trim().substring(0, limit);
    }

    function hasTaggedAncestor(el) {
        for (let p = el.parentElement; p && p !== document.body; p = p.parentElement) {
            if (seen.has(p)) return true;
        }
        return false;
    }

    function tag(el, kind, text) {
        seen.add(el);
        const id = nextId++;
        el.setAttribute('data-serpwalk-id', String(id));
        const item = { id: id, kind: kind, text: text, visible: inViewport(el) };
        if (kind === 'link') {
            item.href = el.href || '';
            if (el.getAttribute('target') === '_blank') el.removeAttribute('target');
        }
        items.push(item);
    }

    for (const el of document.body.querySelectorAll('*')) {
        if (items.length >= maxItems) break;
        if (seen.has(el) || !isVisible(el)) continue;

        const name = el.tagName.toLowerCase();
        const role = el.getAttribute('role');
        const type = (el.getAttribute('type') || '').toLowerCase();

        if (name === 'input' && (type === 'submit' || type === 'button')) {
            tag(el, 'button', label(el, 60) || 'Button');
        } else if (name === 'input' && (type === 'checkbox' || type === 'radio')) {
            tag(el, 'checkbox', label(el, 60) + (el.checked ? ' (checked)' : ''));
        } else if (name === 'input' || name === 'textarea' || role === 'textbox' || role === 'searchbox' ||
            role === 'combobox' || el.isContentEditable) {
            if (hasTaggedAncestor(el)) continue;
            tag(el, 'input', label(el, 60) || 'Text field');
        } else if (name === 'select') {
            tag(el, 'select', label(el, 60));
        } else if (name === 'a' && (el.getAttribute('href') || role === 'link')) {
            tag(el, 'link', label(el, 100) || 'Link');
        } else if (name === 'button' || role === 'button' || role === 'link' || role === 'tab' || role === 'menuitem') {
            tag(el, 'button', label(el, 60) || 'Button');
        } else if (window.getComputedStyle(el).cursor === 'pointer' &&
            ['div', 'span', 'li', 'img'].includes(name) && !hasTaggedAncestor(el)) {
            const rect = el.getBoundingClientRect();
            if (rect.width > 500 && rect.height > 500) continue;
            tag(el, 'clickable', label(el, 40) || 'Item');
        }
    }

    return JSON.stringify(items);
}`
